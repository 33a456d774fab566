package main

import (
	"github.com/alecthomas/kong"
	"go.uber.org/fx"

	"github.com/sergeii/paytv/cmd/paytv/application"
	"github.com/sergeii/paytv/cmd/paytv/cards"
	"github.com/sergeii/paytv/cmd/paytv/commander"
	"github.com/sergeii/paytv/cmd/paytv/components/encoder"
	"github.com/sergeii/paytv/cmd/paytv/components/exporter"
	"github.com/sergeii/paytv/cmd/paytv/logging"
	"github.com/sergeii/paytv/internal/settings"
)

func main() {
	cli := commander.CLI{}
	cli.Run.Plugins = kong.Plugins{
		&encoder.CLI{},
	}
	ctx := kong.Parse(
		&cli,
		kong.Name("paytv"),
		kong.Description("Pay TV conditional access encoder"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Summary:   true,
			Tree:      true,
			FlagsLast: true,
		}),
	)

	builder := application.NewBuilder(
		fx.Supply(cards.Config{
			CardDataPath:       cli.Globals.CardData,
			SignatureTablePath: cli.Globals.SignatureTable,
		}),
		application.Module,
		fx.Supply(logging.Config{
			LogLevel:  cli.Globals.LogLevel,
			LogOutput: cli.Globals.LogOutput,
		}),
		fx.Supply(settings.Settings{
			EnableEMM:  cli.Globals.EnableEMM,
			DisableEMM: cli.Globals.DisableEMM,
			ShowECM:    cli.Globals.ShowECM,
			FindKey:    cli.Globals.FindKey,
			ShowSerial: cli.Globals.ShowSerial,
		}),
		fx.Provide(logging.Provide),
		fx.WithLogger(logging.FxLogger),
		fx.Supply(exporter.Config{
			HTTPListenAddress:   cli.Globals.ExporterHTTPListenAddress,
			HTTPReadTimeout:     cli.Globals.ExporterHTTPReadTimeout,
			HTTPWriteTimeout:    cli.Globals.ExporterHTTPWriteTimeout,
			HTTPShutdownTimeout: cli.Globals.ExporterHTTPShutdownTimeout,
		}),
		exporter.Module,
	)

	if err := ctx.Run(&cli.Globals, builder); err != nil {
		ctx.FatalIfErrorf(err)
	}
}
