package scheduler

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/pkg/logutils"
	"github.com/sergeii/paytv/pkg/prbs"
	"github.com/sergeii/paytv/pkg/vbi"
)

var (
	ErrAlreadyRunning = errors.New("scheduler is already running")
	ErrNotRunning     = errors.New("scheduler is not running")
	ErrNoBlocks       = errors.New("track has no blocks")
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// RotateFunc is called for the current block of a track when its rotation period ends,
// before the track moves on to the next block
type RotateFunc func(frame uint64, b *blocks.Block)

// Track is the rotation of message blocks of one generation
type Track struct {
	name     string
	seq      vbi.Sequence
	blocks   []*blocks.Block
	index    int
	record   vbi.Record
	rotate   RotateFunc
	ecmSlot  int
	emmShown bool
}

func NewTrackA(bs []*blocks.Block, ecmSlot int, rotate RotateFunc) (*Track, error) {
	return newTrack("A", vbi.SequenceA, bs, ecmSlot, rotate)
}

func NewTrackB(bs []*blocks.Block, rotate RotateFunc) (*Track, error) {
	return newTrack("B", vbi.SequenceB, bs, 5, rotate)
}

func newTrack(name string, seq vbi.Sequence, bs []*blocks.Block, ecmSlot int, rotate RotateFunc) (*Track, error) {
	if len(bs) == 0 {
		return nil, ErrNoBlocks
	}
	return &Track{
		name:    name,
		seq:     seq,
		blocks:  bs,
		rotate:  rotate,
		ecmSlot: ecmSlot,
	}, nil
}

// WithEMM makes ECM reports include the EMM slot
func (t *Track) WithEMM() *Track {
	t.emmShown = true
	return t
}

func (t *Track) Current() *blocks.Block {
	return t.blocks[t.index]
}

func (t *Track) Record() *vbi.Record {
	return &t.record
}

func (t *Track) advance() {
	t.index = (t.index + 1) % len(t.blocks)
}

// Snapshot is a point in time view of the scheduler
type Snapshot struct {
	State    State
	Frame    uint64
	Codeword uint64
	BlockA   int
	BlockB   int
}

type Scheduler struct {
	mu      sync.Mutex
	state   State
	a, b    *Track
	counter uint64
	cw      uint64
	prbs    prbs.Generator
	logger  *zerolog.Logger
	showECM bool
}

type Option func(s *Scheduler)

func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithShowECM(show bool) Option {
	return func(s *Scheduler) {
		s.showECM = show
	}
}

// New creates a scheduler for the tracks. Either of them may be nil.
func New(a, b *Track, cw uint64, opts ...Option) *Scheduler {
	nop := zerolog.Nop()
	s := &Scheduler{
		a:      a,
		b:      b,
		cw:     cw & prbs.CodewordMask,
		logger: &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return ErrAlreadyRunning
	}
	s.state = Running
	return nil
}

// Frame prepares the VBI data of the new frame, reloads the line generator
// and rotates blocks and codewords on their period boundaries
func (s *Scheduler) Frame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running {
		return ErrNotRunning
	}

	n := s.counter
	if s.a != nil {
		s.encodeA(n)
	}
	if s.b != nil {
		s.encodeB(n)
	}

	s.prbs.Reset(prbs.InitWord(s.cw, uint8(n)))

	s.counter++
	n = s.counter

	if n&63 == 0 && s.a != nil {
		blk := s.a.Current()
		s.cw = blk.Answer() & prbs.CodewordMask
		if s.a.rotate != nil {
			s.a.rotate(n, blk)
		}
		s.reportECM(s.a)
		s.a.advance()
	}

	if n&15 == 0 && s.b != nil {
		blk := s.b.Current()
		if s.a == nil {
			s.cw = blk.Answer() & prbs.CodewordMask
		}
		if s.b.rotate != nil {
			s.b.rotate(n, blk)
		}
		if s.a != nil {
			s.simulcrypt(n, blk)
		}
		s.reportECM(s.b)
		if n&63 == 0 {
			s.b.advance()
		}
	}

	return nil
}

func (s *Scheduler) encodeA(n uint64) {
	blk := s.a.Current()
	if n&7 == 0 {
		blk.Refresh(int((n>>3)&7) % 7)
	}
	if n&4 == 0 {
		s.a.record = vbi.Encode(blk.Current[:16], s.a.seq.First(int(n>>4)), byte(n))
	} else {
		s.a.record = vbi.Encode(blk.Current[16:], s.a.seq.Second(int(n>>4)), blk.Mode)
	}
}

func (s *Scheduler) encodeB(n uint64) {
	blk := s.b.Current()
	if n&1 == 0 {
		blk.Refresh(int((n >> 1) & 7))
		s.b.record = vbi.Encode(blk.Current[:16], s.b.seq.First(int(n>>1)), byte(n))
		return
	}
	mode := blk.Mode
	if n&8 != 0 {
		mode = 0
	}
	s.b.record = vbi.Encode(blk.Current[16:], s.b.seq.Second(int(n>>1)), mode)
}

// simulcrypt hands the generation A codeword to generation B decoders
// hidden in the on-screen message of the current B block
func (s *Scheduler) simulcrypt(n uint64, blk *blocks.Block) {
	d, err := blk.Mutable()
	if err != nil {
		return
	}
	cw := s.cw
	if n%63 < 15 || n%63 > 47 {
		cw = s.a.Current().Answer()
	}
	cw ^= blk.Answer()
	for i := range 8 {
		d.Messages[0][17+i] = byte(cw >> (8 * i))
	}
}

func (s *Scheduler) reportECM(t *Track) {
	if !s.showECM {
		return
	}
	blk := t.Current()
	ecm := blk.Slot(t.ecmSlot)
	event := s.logger.Info().
		Str("generation", t.name).
		Str("ecm", logutils.HexBytes(ecm[:])).
		Str("answer", logutils.HexCodeword(blk.Answer()))
	if t.emmShown {
		emm := blk.Slot(2)
		event = event.Str("emm", logutils.HexBytes(emm[:]))
	}
	event.Msg("Control message")
}

// Next returns the cut value for the next active line
func (s *Scheduler) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prbs.Next()
}

// RecordA returns the VBI record of the current frame for generation A decoders
func (s *Scheduler) RecordA() *vbi.Record {
	if s.a == nil {
		return nil
	}
	return s.a.Record()
}

func (s *Scheduler) RecordB() *vbi.Record {
	if s.b == nil {
		return nil
	}
	return s.b.Record()
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:    s.state,
		Frame:    s.counter,
		Codeword: s.cw,
		BlockA:   -1,
		BlockB:   -1,
	}
	if s.a != nil {
		snap.BlockA = s.a.index
	}
	if s.b != nil {
		snap.BlockB = s.b.index
	}
	return snap
}
