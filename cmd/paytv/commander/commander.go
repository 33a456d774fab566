package commander

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/sergeii/paytv/cmd/paytv/build"
)

type Globals struct {
	LogLevel  string `default:"info"    enum:"debug,info,warn,error"       help:"Sets the minimum severity level for log messages"`                     // nolint:lll
	LogOutput string `default:"console" enum:"console,stdout,stderr,json" help:"Specifies the format for log output. Logs go to stderr unless stdout is chosen"` // nolint:lll

	CardData       string `help:"Path to the TOML file with card keys, kernel tables, signatures and message templates" type:"existingfile"` // nolint:lll
	SignatureTable string `default:"videocrypt10-data.bin" help:"Path to the external signature table, loaded on the first miss in the embedded one"` // nolint:lll

	EnableEMM  uint32 `name:"enableemm"  help:"Card serial number to send an enable EMM to"`
	DisableEMM uint32 `name:"disableemm" help:"Card serial number to send a disable EMM to"`
	ShowECM    bool   `name:"showecm"    help:"Log control messages and their answers as they go on air"`
	FindKey    bool   `name:"findkey"    help:"Step through pay per view card keys at every block rotation"`
	ShowSerial bool   `name:"showserial" help:"Make decoders display the card serial number"`

	ExporterHTTPListenAddress   string        `default:":9000" help:"Sets the address where the Prometheus exporter server listens for requests"`            // nolint:lll
	ExporterHTTPReadTimeout     time.Duration `default:"5s"    help:"Sets the maximum duration to read the request body before timing out"`                  // nolint:lll
	ExporterHTTPWriteTimeout    time.Duration `default:"5s"    help:"Sets the maximum duration to write a response before timing out"`                       // nolint:lll
	ExporterHTTPShutdownTimeout time.Duration `default:"10s"   help:"The amount of time the server will wait gracefully closing connections before exiting"` // nolint:lll
}

type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	version := fmt.Sprintf("Version: %s (%s) built at %s", build.Version, build.Commit, build.Time)
	fmt.Println(version) // nolint: forbidigo
	os.Exit(0)
	return nil
}

type RunCmd struct {
	kong.Plugins
}

type CLI struct {
	Globals

	Version VersionCmd `cmd:"" help:"Display the app version and exit"`
	Run     RunCmd     `cmd:""`
}
