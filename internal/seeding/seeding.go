package seeding

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/card"
	"github.com/sergeii/paytv/internal/carddata"
	"github.com/sergeii/paytv/internal/modes"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/random"
	"github.com/sergeii/paytv/pkg/signature"
)

var ErrNoResolver = errors.New("signature resolver is required")

// Generator regenerates the control message of a block and the answer to it
type Generator interface {
	Seed(d *blocks.Data) error
}

type config struct {
	rnd      random.Source
	resolver *signature.Resolver
	ppvCard  *kernel.PPVCard
	logger   *zerolog.Logger
	showECM  bool
}

type Option func(c *config)

func WithRand(rnd random.Source) Option {
	return func(c *config) {
		c.rnd = rnd
	}
}

func WithResolver(resolver *signature.Resolver) Option {
	return func(c *config) {
		c.resolver = resolver
	}
}

// WithPPVCard shares the memory card state with the caller, so that key changes are seen by the generator
func WithPPVCard(ppv *kernel.PPVCard) Option {
	return func(c *config) {
		c.ppvCard = ppv
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithShowECM(show bool) Option {
	return func(c *config) {
		c.showECM = show
	}
}

// Static reports whether the generator leaves blocks as they are,
// which is the case for modes carrying fixed answers in their templates
func Static(g Generator) bool {
	_, ok := g.(nopGenerator)
	return ok
}

// New builds the generator for the engine of the mode
func New(mode modes.Mode, data *carddata.Data, opts ...Option) (Generator, error) {
	nop := zerolog.Nop()
	cfg := config{logger: &nop}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rnd == nil {
		cfg.rnd = random.NewSource(0)
	}

	switch mode.Engine {
	case modes.EngineP07:
		p, err := newP07(mode, data)
		if err != nil {
			return nil, err
		}
		return &p07Generator{p: p, rnd: cfg.rnd}, nil
	case modes.EngineP09, modes.EngineP09Nano:
		p, err := newP09(mode, data)
		if err != nil {
			return nil, err
		}
		return &p09Generator{p: p, nano: mode.Engine == modes.EngineP09Nano, rnd: cfg.rnd}, nil
	case modes.EngineXTEA:
		return &xteaGenerator{rnd: cfg.rnd}, nil
	case modes.EnginePPV:
		ppv := cfg.ppvCard
		if ppv == nil {
			ppv = &kernel.PPVCard{}
			*ppv = kernel.DefaultPPVCard
		}
		return &ppvGenerator{card: ppv, rnd: cfg.rnd}, nil
	case modes.EngineASIC, modes.EngineASICPPV:
		if cfg.resolver == nil {
			return nil, ErrNoResolver
		}
		tables, err := data.KernelTables()
		if err != nil {
			return nil, err
		}
		return &asicGenerator{
			card:    card.New(tables, cfg.resolver, cfg.logger),
			ppv:     mode.Engine == modes.EngineASICPPV,
			rnd:     cfg.rnd,
			logger:  cfg.logger,
			showECM: cfg.showECM,
		}, nil
	default:
		return nopGenerator{}, nil
	}
}

func newP07(mode modes.Mode, data *carddata.Data) (*kernel.P07, error) {
	key, err := data.Key(mode.Key)
	if err != nil {
		return nil, err
	}
	p, err := kernel.NewP07(key, mode.KeyOffset, mode.Variant, mode.Signature)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", mode.Key, err)
	}
	return p, nil
}

func newP09(mode modes.Mode, data *carddata.Data) (*kernel.P09, error) {
	key, err := data.Key(mode.Key)
	if err != nil {
		return nil, err
	}
	p, err := kernel.NewP09(key)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", mode.Key, err)
	}
	return p, nil
}
