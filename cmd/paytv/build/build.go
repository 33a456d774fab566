package build

// Set at link time with -ldflags "-X github.com/sergeii/paytv/cmd/paytv/build.Version=..."
var (
	Version = "development"
	Commit  = "unknown"
	Time    = "unknown"
)
