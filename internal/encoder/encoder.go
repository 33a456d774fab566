package encoder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/carddata"
	"github.com/sergeii/paytv/internal/metrics"
	"github.com/sergeii/paytv/internal/modes"
	"github.com/sergeii/paytv/internal/scheduler"
	"github.com/sergeii/paytv/internal/seeding"
	"github.com/sergeii/paytv/internal/settings"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/prbs"
	"github.com/sergeii/paytv/pkg/random"
	"github.com/sergeii/paytv/pkg/signature"
	"github.com/sergeii/paytv/pkg/vbi"
)

var (
	ErrUnknownMode    = modes.ErrUnknownMode
	ErrEMMUnsupported = seeding.ErrEMMUnsupported
	ErrNoModes        = errors.New("neither generation has a mode")
	ErrClosed         = errors.New("session is closed")
	ErrShortLine      = errors.New("line is shorter than the configured width")

	// ErrOutOfMemory is reserved for hosts that wrap sessions and map their own allocation
	// failures onto StatusOutOfMemory. Sessions never return it, the Go runtime aborts instead.
	ErrOutOfMemory = errors.New("out of memory")
)

// Status is the outcome of session initialization as reported to hosts expecting a status code
type Status int

const (
	StatusOK Status = iota
	StatusError
	// reserved, see ErrOutOfMemory
	StatusOutOfMemory
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusOutOfMemory:
		return "out of memory"
	default:
		return "error"
	}
}

func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrOutOfMemory):
		return StatusOutOfMemory
	default:
		return StatusError
	}
}

// VBI lines, one range per field
const (
	vbiFieldA1 = 12
	vbiFieldA2 = 325
	vbiFieldB1 = 8
	vbiFieldB2 = 321
)

// line on which the frame tick runs
const firstLine = 1

// Config describes the modes of the session and the geometry of the lines it renders
type Config struct {
	ModeA    string
	ModeB    string
	Settings settings.Settings

	Width      int
	HsyncWidth float64
	PixelRate  float64
	Black      int16
	White      int16
}

// DefaultConfig is a PAL line sampled at the reference rate of the scrambler
func DefaultConfig() Config {
	return Config{
		Width:      prbs.ReferenceWidth,
		HsyncWidth: 4.7e-6,
		PixelRate:  prbs.ReferenceRate,
		Black:      0,
		White:      0x3FFF,
	}
}

// Line is a single line of samples passed through the session
type Line struct {
	Number  int
	Samples []int16
	// set once VBI data has been drawn into the line, or the line must not carry other data
	VBIAllocated bool
}

type Option func(s *Session)

func WithCardData(data *carddata.Data) Option {
	return func(s *Session) {
		s.data = data
	}
}

// WithResolver shares a signature resolver between sessions,
// so that the external table is loaded at most once per process
func WithResolver(resolver *signature.Resolver) Option {
	return func(s *Session) {
		s.resolver = resolver
	}
}

func WithRand(rnd random.Source) Option {
	return func(s *Session) {
		s.rnd = rnd
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Session) {
		s.metrics = collector
	}
}

type track struct {
	mode   modes.Mode
	blocks []*blocks.Block
	seeder seeding.Generator
}

func (t *track) name() string {
	if t == nil {
		return ""
	}
	return t.mode.Name
}

// Session scrambles the lines of one stream and carries the control messages for its decoders
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	cfg      Config
	data     *carddata.Data
	resolver *signature.Resolver
	rnd      random.Source
	logger   *zerolog.Logger
	metrics  *metrics.Collector

	a, b     *track
	ppv      kernel.PPVCard
	sched    *scheduler.Scheduler
	geometry *prbs.Geometry
	vbi      *vbi.Renderer
	closed   bool
}

// Info is a point in time view of the session
type Info struct {
	ID    uuid.UUID
	ModeA string
	ModeB string
	scheduler.Snapshot
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Info() Info {
	return Info{
		ID:       s.id,
		ModeA:    s.a.name(),
		ModeB:    s.b.name(),
		Snapshot: s.sched.Snapshot(),
	}
}

// Render passes a line through the session.
// The frame tick runs on the first line of every frame, VBI data is drawn on the VBI lines
// of each active generation and active lines are cut and rotated using samples of the delayed line.
func (s *Session) Render(line, delayed *Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if line.Number == firstLine {
		if err := s.tick(); err != nil {
			return err
		}
	}

	if rec, gen, n := s.vbiRecord(line.Number); rec != nil {
		s.vbi.Render(rec.Line(n), line.Samples)
		line.VBIAllocated = true
		s.metrics.EncoderVBILines.WithLabelValues(gen.String()).Inc()
	}

	if !prbs.IsActive(line.Number) {
		return nil
	}

	// clocked for every active line, including the ones left untouched
	v := s.sched.Next()
	if line.Number == prbs.SpillLine {
		line.VBIAllocated = true
	}
	if line.Number == prbs.WSSLine {
		return nil
	}
	if len(line.Samples) < s.geometry.Width() || delayed == nil || len(delayed.Samples) < s.geometry.Width() {
		return fmt.Errorf("%w: line %d", ErrShortLine, line.Number)
	}
	s.geometry.Scramble(line.Samples, delayed.Samples, v)
	s.metrics.EncoderLinesScrambled.Inc()

	return nil
}

func (s *Session) tick() error {
	started := time.Now()
	if err := s.sched.Frame(); err != nil {
		return err
	}
	s.metrics.EncoderFrames.Inc()
	s.metrics.EncoderDurations.Observe(time.Since(started).Seconds())
	return nil
}

func (s *Session) vbiRecord(line int) (*vbi.Record, modes.Generation, int) {
	if s.a != nil {
		if n, ok := vbiLine(line, vbiFieldA1, vbiFieldA2); ok {
			return s.sched.RecordA(), modes.GenerationA, n
		}
	}
	if s.b != nil {
		if n, ok := vbiLine(line, vbiFieldB1, vbiFieldB2); ok {
			return s.sched.RecordB(), modes.GenerationB, n
		}
	}
	return nil, 0, 0
}

func vbiLine(line, top, bottom int) (int, bool) {
	switch {
	case line >= top && line < top+vbi.LinesPerField:
		return line - top, true
	case line >= bottom && line < bottom+vbi.LinesPerField:
		return line - bottom + vbi.LinesPerField, true
	}
	return 0, false
}

// Close releases the private block storage of the session
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.release(s.a)
	s.release(s.b)
	s.closed = true
	s.logger.Debug().Stringer("session", s.id).Msg("Session closed")
}
