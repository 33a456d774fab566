package encoder

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/carddata"
	"github.com/sergeii/paytv/internal/metrics"
	"github.com/sergeii/paytv/internal/modes"
	"github.com/sergeii/paytv/internal/scheduler"
	"github.com/sergeii/paytv/internal/seeding"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/prbs"
	"github.com/sergeii/paytv/pkg/random"
	"github.com/sergeii/paytv/pkg/signature"
	"github.com/sergeii/paytv/pkg/vbi"
)

// B decoders regenerate their control message halfway through the block rotation
const reseedPhaseB = 0x20

// New prepares the blocks of both generations, seeds them and starts the scheduler.
// Either of the modes may be omitted, but not both.
func New(cfg Config, opts ...Option) (*Session, error) {
	nop := zerolog.Nop()
	s := &Session{
		id:     uuid.New(),
		cfg:    cfg,
		logger: &nop,
		ppv:    kernel.DefaultPPVCard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.data == nil {
		s.data = carddata.Default()
	}
	if s.rnd == nil {
		s.rnd = random.NewSource(0)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	if cfg.ModeA == "" && cfg.ModeB == "" {
		return nil, ErrNoModes
	}

	var err error
	if s.geometry, err = prbs.NewGeometry(cfg.Width, cfg.HsyncWidth); err != nil {
		return nil, err
	}
	if s.vbi, err = vbi.NewRenderer(cfg.PixelRate, cfg.Width, cfg.Black, cfg.White); err != nil {
		return nil, err
	}

	if cfg.ModeA != "" {
		if s.a, err = s.prepareA(cfg.ModeA); err != nil {
			return nil, err
		}
	}
	if cfg.ModeB != "" {
		if s.b, err = s.prepareB(cfg.ModeB); err != nil {
			s.release(s.a)
			return nil, err
		}
	}

	if err = s.startScheduler(); err != nil {
		s.release(s.a)
		s.release(s.b)
		return nil, err
	}

	s.logger.Info().
		Stringer("session", s.id).
		Str("modeA", s.a.name()).
		Str("modeB", s.b.name()).
		Msg("Session started")

	return s, nil
}

func (s *Session) newTrack(gen modes.Generation, name string) (*track, error) {
	mode, err := modes.Lookup(gen, name)
	if err != nil {
		return nil, err
	}

	seederOpts := []seeding.Option{
		seeding.WithRand(s.rnd),
		seeding.WithPPVCard(&s.ppv),
		seeding.WithLogger(s.logger),
		seeding.WithShowECM(s.cfg.Settings.ShowECM),
	}
	if mode.Engine == modes.EngineASIC || mode.Engine == modes.EngineASICPPV {
		if s.resolver == nil {
			if s.resolver, err = signature.New(s.data.Signatures(), signature.WithLogger(s.logger)); err != nil {
				return nil, err
			}
		}
		seederOpts = append(seederOpts, seeding.WithResolver(s.resolver))
	}
	seeder, err := seeding.New(mode, s.data, seederOpts...)
	if err != nil {
		return nil, fmt.Errorf("mode %s: %w", mode.Name, err)
	}

	// free access data is shared, everything else gets written to
	writable := !mode.Free()
	bs := make([]*blocks.Block, mode.Blocks)
	for i := range bs {
		tpl := s.data.Template(mode.Template, i)
		bs[i] = blocks.NewBlock(tpl.Mode, &tpl.Data, writable)
	}

	return &track{mode: mode, blocks: bs, seeder: seeder}, nil
}

func (s *Session) prepareA(name string) (*track, error) {
	t, err := s.newTrack(modes.GenerationA, name)
	if err != nil {
		return nil, err
	}
	mode := t.mode

	if mode.Engine == modes.EnginePPV && s.cfg.Settings.FindKey {
		s.ppv[5], s.ppv[6] = 0x00, 0x00
	}
	for i := range t.blocks {
		d, err := t.blocks[i].Mutable()
		if err != nil {
			continue
		}
		seeding.StampECM(mode, d)
		s.seed(t, i, d)
	}

	if s.cfg.Settings.WantsEMM() {
		if err = s.applyEMMA(t); err != nil {
			return nil, err
		}
	}

	if !mode.Free() && len(t.blocks) > 1 {
		d, err := t.blocks[1].Mutable()
		if err != nil {
			return nil, err
		}
		if err = seeding.ChannelNameA(d, mode.Channel); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (s *Session) applyEMMA(t *track) error {
	w, err := seeding.NewEMMWriter(t.mode, s.data)
	if err != nil {
		return err
	}
	serial, enable := s.cfg.Settings.EMMSerial()
	for i := 0; i < len(t.blocks) && i < 2; i++ {
		d, err := t.blocks[i].Mutable()
		if err != nil {
			return err
		}
		w.Write(d, serial, enable, i)
	}
	return nil
}

func (s *Session) prepareB(name string) (*track, error) {
	t, err := s.newTrack(modes.GenerationB, name)
	if err != nil {
		return nil, err
	}
	mode := t.mode

	if mode.Policy == modes.Dynamic {
		for i := range t.blocks {
			d, err := t.blocks[i].Mutable()
			if err != nil {
				return nil, err
			}
			seeding.StampECM(mode, d)
			s.seed(t, i, d)
		}
		if s.a != nil && len(t.blocks) > 1 {
			// initial codeword sync with generation A decoders
			d, _ := t.blocks[1].Mutable()
			cw := s.a.blocks[0].Answer() ^ d.Answer
			for i := range 8 {
				d.Messages[0][17+i] = byte(cw >> (8 * i))
			}
		}
	}

	if !mode.Free() {
		named := make([]*blocks.Data, 0, 2)
		for i := 0; i < len(t.blocks) && i < 2; i++ {
			d, err := t.blocks[i].Mutable()
			if err != nil {
				return nil, err
			}
			named = append(named, d)
		}
		if err = seeding.ChannelNameB(named, mode.Channel); err != nil {
			return nil, err
		}
	}

	if s.cfg.Settings.WantsEMM() {
		if err = s.applyEMMB(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (s *Session) applyEMMB(t *track) error {
	w, err := seeding.NewEMMWriter(t.mode, s.data)
	if err != nil {
		return err
	}
	d, err := t.blocks[0].Mutable()
	if err != nil {
		return err
	}
	if serial := s.cfg.Settings.EnableEMM; serial != 0 {
		w.Write(d, serial, true, 0)
	}
	if serial := s.cfg.Settings.DisableEMM; serial != 0 {
		w.Write(d, serial, false, 0)
	}
	return nil
}

// seed regenerates the control message of a block.
// A failure keeps the previous message and answer, the next rotation will try again.
func (s *Session) seed(t *track, idx int, d *blocks.Data) {
	if seeding.Static(t.seeder) {
		return
	}
	gen := t.mode.Generation.String()
	if err := t.seeder.Seed(d); err != nil {
		s.metrics.SeedFailures.WithLabelValues(gen).Inc()
		s.logger.Error().
			Err(err).
			Str("mode", t.mode.Name).Int("block", idx).
			Msg("Failed to seed block")
		return
	}
	s.metrics.SeedReseeds.WithLabelValues(gen).Inc()
}

func (s *Session) startScheduler() error {
	var ta, tb *scheduler.Track
	var err error

	if s.a != nil {
		if ta, err = scheduler.NewTrackA(s.a.blocks, s.a.mode.ECMSlot(), s.rotateA); err != nil {
			return err
		}
		if s.cfg.Settings.WantsEMM() {
			ta.WithEMM()
		}
	}
	if s.b != nil {
		if tb, err = scheduler.NewTrackB(s.b.blocks, s.rotateB); err != nil {
			return err
		}
		if s.cfg.Settings.WantsEMM() {
			tb.WithEMM()
		}
	}

	cw := uint64(s.rnd.Int31())
	s.sched = scheduler.New(
		ta, tb, cw,
		scheduler.WithLogger(s.logger),
		scheduler.WithShowECM(s.cfg.Settings.ShowECM),
	)
	return s.sched.Start()
}

// rotateA prepares the block that has just gone off air for its next turn
func (s *Session) rotateA(_ uint64, blk *blocks.Block) {
	d, err := blk.Mutable()
	if err != nil {
		return
	}
	mode := s.a.mode
	if mode.Policy == modes.Dynamic {
		if mode.Engine == modes.EnginePPV && s.cfg.Settings.FindKey {
			ka, kb := seeding.NextKeys(&s.ppv)
			s.logger.Info().
				Str("ka", fmt.Sprintf("0x%02X", ka)).
				Str("kb", fmt.Sprintf("0x%02X", kb)).
				Msg("Testing keys")
			seeding.ShowKeys(d, mode.OSDSlot(), ka, kb)
		}
		s.seed(s.a, s.indexOf(s.a, blk), d)
	}
	if s.cfg.Settings.ShowSerial {
		seeding.ShowSerial(d, mode.OSDSlot())
	}
}

func (s *Session) rotateB(frame uint64, blk *blocks.Block) {
	if s.b.mode.Policy != modes.Dynamic || frame&63 != reseedPhaseB {
		return
	}
	d, err := blk.Mutable()
	if err != nil {
		return
	}
	s.seed(s.b, s.indexOf(s.b, blk), d)
}

func (s *Session) indexOf(t *track, blk *blocks.Block) int {
	for i, b := range t.blocks {
		if b == blk {
			return i
		}
	}
	return -1
}

func (s *Session) release(t *track) {
	if t == nil {
		return
	}
	for _, blk := range t.blocks {
		blk.Release()
	}
}
