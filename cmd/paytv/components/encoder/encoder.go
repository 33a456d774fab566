package encoder

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/paytv/cmd/paytv/application"
	"github.com/sergeii/paytv/cmd/paytv/build"
	"github.com/sergeii/paytv/cmd/paytv/commander"
	"github.com/sergeii/paytv/cmd/paytv/components/api"
	"github.com/sergeii/paytv/cmd/paytv/components/observer"
	"github.com/sergeii/paytv/internal/carddata"
	"github.com/sergeii/paytv/internal/encoder"
	"github.com/sergeii/paytv/internal/metrics"
	"github.com/sergeii/paytv/internal/settings"
	"github.com/sergeii/paytv/pkg/prbs"
	"github.com/sergeii/paytv/pkg/random"
	"github.com/sergeii/paytv/pkg/signature"
)

// 25 frames per second
const frameInterval = time.Second / 25

type Config struct {
	ModeA    string
	ModeB    string
	Input    string
	Output   string
	Frames   int
	Realtime bool
	Width    int
}

type Component struct{}

type runner struct {
	cfg      Config
	pipeline *Pipeline
	clock    clockwork.Clock
	logger   *zerolog.Logger
}

func (r runner) run(stop chan struct{}, stopped chan struct{}, shutdowner fx.Shutdowner) {
	defer close(stopped)

	var tick <-chan time.Time
	if r.cfg.Realtime {
		ticker := r.clock.NewTicker(frameInterval)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	rendered := 0
	for r.cfg.Frames == 0 || rendered < r.cfg.Frames {
		select {
		case <-stop:
			r.flush()
			return
		default:
		}
		if tick != nil {
			select {
			case <-stop:
				r.flush()
				return
			case <-tick:
			}
		}
		if err := r.pipeline.RenderFrame(); err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Info().Int("frames", rendered).Msg("Input exhausted")
			} else {
				r.logger.Error().Err(err).Int("frames", rendered).Msg("Failed to render frame")
			}
			break
		}
		rendered++
	}

	r.flush()
	r.logger.Info().Int("frames", rendered).Msg("Encoder finished")
	if err := shutdowner.Shutdown(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to shut down after encoding")
	}
}

func (r runner) flush() {
	if err := r.pipeline.Flush(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to flush output")
	}
}

func openInput(path string) (io.ReadCloser, error) {
	switch path {
	case "":
		return nil, nil // nolint: nilnil
	case "-":
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	switch path {
	case "":
		return nopWriteCloser{io.Discard}, nil
	case "-":
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func New(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg Config,
	s settings.Settings,
	clock clockwork.Clock,
	data *carddata.Data,
	resolver *signature.Resolver,
	registry *encoder.Registry,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) (*Component, error) {
	sessionCfg := encoder.DefaultConfig()
	sessionCfg.ModeA = cfg.ModeA
	sessionCfg.ModeB = cfg.ModeB
	sessionCfg.Settings = s
	if cfg.Width > 0 {
		sessionCfg.Width = cfg.Width
		sessionCfg.PixelRate = sessionCfg.PixelRate * float64(cfg.Width) / float64(prbs.ReferenceWidth)
	}

	session, err := encoder.New(
		sessionCfg,
		encoder.WithCardData(data),
		encoder.WithResolver(resolver),
		encoder.WithRand(random.NewSource(0)),
		encoder.WithLogger(logger),
		encoder.WithMetrics(collector),
	)
	if err != nil {
		logger.Error().
			Err(err).
			Stringer("status", encoder.StatusOf(err)).
			Msg("Failed to start encoder session")
		return nil, err
	}

	var src io.ReadCloser
	var dst io.WriteCloser
	stopped := make(chan struct{})
	stop := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if src, err = openInput(cfg.Input); err != nil {
				return err
			}
			if dst, err = openOutput(cfg.Output); err != nil {
				return err
			}
			var reader io.Reader
			if src != nil {
				reader = src
			}
			r := runner{
				cfg:      cfg,
				pipeline: NewPipeline(session, sessionCfg.Width, reader, dst),
				clock:    clock,
				logger:   logger,
			}
			registry.Set(session)
			go r.run(stop, stopped, shutdowner) // nolint: contextcheck
			return nil
		},
		OnStop: func(context.Context) error {
			if dst != nil {
				close(stop)
				<-stopped
			}
			registry.Clear(session)
			session.Close()
			if src != nil {
				src.Close() // nolint: errcheck
			}
			if dst != nil {
				if closeErr := dst.Close(); closeErr != nil {
					logger.Error().Err(closeErr).Msg("Failed to close output")
					return closeErr
				}
			}
			logger.Info().Msg("Encoder stopped")
			return nil
		},
	})

	return &Component{}, nil
}

type command struct {
	ModeA    string `name:"mode-a"   help:"Generation A mode, one of free, ppv, sky07, ..."`
	ModeB    string `name:"mode-b"   help:"Generation B mode, one of free, conditional"`
	Input    string `short:"i"       help:"File with raw frames of 625 lines of little-endian 16-bit samples, - for stdin. Flat grey when empty"` // nolint:lll
	Output   string `short:"o"       help:"File to write the rendered frames to, - for stdout"`
	Frames   int    `default:"0"     help:"Number of frames to render, 0 renders until the input ends"`
	Realtime bool   `help:"Pace rendering at 25 frames per second"`
	Width    int    `default:"0"     help:"Samples per line, the reference width when 0"`

	APIAddress       string        `name:"api-address" help:"Serve the session status API on this address"`
	ObserverInterval time.Duration `default:"1s"       help:"Sets how often session metrics are collected"`
}

func (c *command) Run(_ *commander.Globals, builder *application.Builder) error {
	builder.Add(
		fx.Supply(Config{
			ModeA:    c.ModeA,
			ModeB:    c.ModeB,
			Input:    c.Input,
			Output:   c.Output,
			Frames:   c.Frames,
			Realtime: c.Realtime,
			Width:    c.Width,
		}),
		fx.Supply(observer.Config{
			ObserveInterval: c.ObserverInterval,
		}),
		observer.Module,
		fx.Invoke(func(*observer.Component) {}),
		Module,
		fx.Invoke(func(logger *zerolog.Logger, _ *Component) {
			logger.Info().
				Str("version", build.Version).
				Str("commit", build.Commit).
				Str("built", build.Time).
				Str("modeA", c.ModeA).
				Str("modeB", c.ModeB).
				Msg("Starting encoder")
		}),
	)
	if c.APIAddress != "" {
		builder.Add(
			fx.Supply(api.Config{
				HTTPListenAddr:      c.APIAddress,
				HTTPReadTimeout:     time.Second * 5,
				HTTPWriteTimeout:    time.Second * 5,
				HTTPShutdownTimeout: time.Second * 10,
			}),
			api.Module,
			fx.Invoke(func(*api.Component) {}),
		)
	}
	app := builder.WithExporter().Build()
	app.Run()
	return nil
}

type CLI struct {
	Encoder command `cmd:"" help:"Scramble frames and carry control messages for the selected modes"`
}

var Module = fx.Module("encoder",
	fx.Provide(New),
)
