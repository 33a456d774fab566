package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/scheduler"
	"github.com/sergeii/paytv/pkg/prbs"
	"github.com/sergeii/paytv/pkg/vbi"
)

func makeBlock(mode byte, answer uint64, seed byte, writable bool) *blocks.Block {
	d := &blocks.Data{Answer: answer, HasAnswer: true}
	for i := range d.Messages {
		for j := range d.Messages[i] {
			d.Messages[i][j] = seed + byte(i*32+j)
		}
	}
	return blocks.NewBlock(mode, d, writable)
}

func sealed(b *blocks.Block, slot int) blocks.Message {
	m := b.Slot(slot)
	m.Seal()
	return m
}

func runFrames(t *testing.T, s *scheduler.Scheduler, n int) {
	for range n {
		require.NoError(t, s.Frame())
	}
}

func TestScheduler_States(t *testing.T) {
	a, err := scheduler.NewTrackA([]*blocks.Block{makeBlock(0, 0, 0, false)}, 5, nil)
	require.NoError(t, err)
	s := scheduler.New(a, nil, 0)

	assert.ErrorIs(t, s.Frame(), scheduler.ErrNotRunning)
	assert.Equal(t, scheduler.Idle, s.Snapshot().State)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), scheduler.ErrAlreadyRunning)
	assert.Equal(t, scheduler.Running, s.Snapshot().State)

	require.NoError(t, s.Frame())
	assert.Equal(t, uint64(1), s.Snapshot().Frame)
}

func TestNewTrack_NoBlocks(t *testing.T) {
	_, err := scheduler.NewTrackA(nil, 5, nil)
	assert.ErrorIs(t, err, scheduler.ErrNoBlocks)
	_, err = scheduler.NewTrackB([]*blocks.Block{}, nil)
	assert.ErrorIs(t, err, scheduler.ErrNoBlocks)
}

func TestScheduler_GenerationACadence(t *testing.T) {
	blk := makeBlock(0x20, 0x0ABC, 0, false)
	a, err := scheduler.NewTrackA([]*blocks.Block{blk}, 5, nil)
	require.NoError(t, err)
	s := scheduler.New(a, nil, 0)
	require.NoError(t, s.Start())
	assert.Nil(t, s.RecordB())

	// frame 0: first half of slot 0
	runFrames(t, s, 1)
	msg := sealed(blk, 0)
	assert.Equal(t, vbi.Encode(msg[:16], 0x87, 0x00), *s.RecordA())

	// frame 4: second half of the same message carrying the block mode
	runFrames(t, s, 4)
	assert.Equal(t, vbi.Encode(msg[16:], 0x78, 0x20), *s.RecordA())

	// frame 8: slot 1
	runFrames(t, s, 4)
	msg = sealed(blk, 1)
	assert.Equal(t, vbi.Encode(msg[:16], 0x87, 0x08), *s.RecordA())

	// frame 16: next header in the sequence
	runFrames(t, s, 8)
	msg = sealed(blk, 2)
	assert.Equal(t, vbi.Encode(msg[:16], 0x96, 0x10), *s.RecordA())

	// frame 56: slot 7 is never sent, slot 0 is repeated instead
	runFrames(t, s, 40)
	msg = sealed(blk, 0)
	assert.Equal(t, vbi.Encode(msg[:16], 0xB4, 0x38), *s.RecordA())
}

func TestScheduler_GenerationBCadence(t *testing.T) {
	blk := makeBlock(0x40, 0x0DEF, 3, false)
	b, err := scheduler.NewTrackB([]*blocks.Block{blk}, nil)
	require.NoError(t, err)
	s := scheduler.New(nil, b, 0)
	require.NoError(t, s.Start())
	assert.Nil(t, s.RecordA())

	runFrames(t, s, 1)
	msg := sealed(blk, 0)
	assert.Equal(t, vbi.Encode(msg[:16], 0x80, 0x00), *s.RecordB())

	runFrames(t, s, 1)
	assert.Equal(t, vbi.Encode(msg[16:], 0x08, 0x40), *s.RecordB())

	runFrames(t, s, 1)
	msg = sealed(blk, 1)
	assert.Equal(t, vbi.Encode(msg[:16], 0x91, 0x02), *s.RecordB())

	// frame 9: the mode byte is blanked on frames 8 to 15
	runFrames(t, s, 7)
	msg = sealed(blk, 4)
	assert.Equal(t, vbi.Encode(msg[16:], 0x4C, 0x00), *s.RecordB())

	// frame 17: back to the mode byte
	runFrames(t, s, 8)
	msg = sealed(blk, 0)
	assert.Equal(t, vbi.Encode(msg[16:], 0x08, 0x40), *s.RecordB())
}

func TestScheduler_RotationA(t *testing.T) {
	first := makeBlock(0x20, 0x0111, 0, true)
	second := makeBlock(0x21, 0x0222, 1, true)

	var calls []uint64
	rotated := make([]*blocks.Block, 0)
	a, err := scheduler.NewTrackA([]*blocks.Block{first, second}, 5, func(frame uint64, b *blocks.Block) {
		calls = append(calls, frame)
		rotated = append(rotated, b)
	})
	require.NoError(t, err)
	s := scheduler.New(a, nil, 0x0999)
	require.NoError(t, s.Start())

	runFrames(t, s, 63)
	snap := s.Snapshot()
	assert.Equal(t, uint64(0x0999), snap.Codeword)
	assert.Equal(t, 0, snap.BlockA)
	assert.Equal(t, -1, snap.BlockB)
	assert.Empty(t, calls)

	runFrames(t, s, 1)
	snap = s.Snapshot()
	assert.Equal(t, uint64(0x0111), snap.Codeword)
	assert.Equal(t, 1, snap.BlockA)
	assert.Equal(t, []uint64{64}, calls)
	assert.Same(t, first, rotated[0])

	runFrames(t, s, 64)
	snap = s.Snapshot()
	assert.Equal(t, uint64(0x0222), snap.Codeword)
	assert.Equal(t, 0, snap.BlockA)
	assert.Equal(t, []uint64{64, 128}, calls)
	assert.Same(t, second, rotated[1])
}

func TestScheduler_RotationB(t *testing.T) {
	first := makeBlock(0x40, 0x0333, 0, true)
	second := makeBlock(0x41, 0x0444, 1, true)

	var calls []uint64
	b, err := scheduler.NewTrackB([]*blocks.Block{first, second}, func(frame uint64, _ *blocks.Block) {
		calls = append(calls, frame)
	})
	require.NoError(t, err)
	s := scheduler.New(nil, b, 0)
	require.NoError(t, s.Start())

	runFrames(t, s, 16)
	snap := s.Snapshot()
	assert.Equal(t, uint64(0x0333), snap.Codeword)
	assert.Equal(t, 0, snap.BlockB)

	runFrames(t, s, 48)
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.BlockB)
	assert.Equal(t, []uint64{16, 32, 48, 64}, calls)

	runFrames(t, s, 16)
	assert.Equal(t, uint64(0x0444), s.Snapshot().Codeword)
}

func TestScheduler_Simulcrypt(t *testing.T) {
	a0 := makeBlock(0x20, 0x0A0A0A0A0A0A0A0, 0, true)
	a1 := makeBlock(0x21, 0x0A1A1A1A1A1A1A1, 1, true)
	bBlock := makeBlock(0x40, 0x0B0B0B0B0B0B0B0, 2, true)

	a, err := scheduler.NewTrackA([]*blocks.Block{a0, a1}, 5, nil)
	require.NoError(t, err)
	b, err := scheduler.NewTrackB([]*blocks.Block{bBlock}, nil)
	require.NoError(t, err)
	s := scheduler.New(a, b, 0x0C0C0C0C0C0C0C0)
	require.NoError(t, s.Start())

	oskey := func() uint64 {
		var v uint64
		slot := bBlock.Slot(0)
		for i := range 8 {
			v |= uint64(slot[17+i]) << (8 * i)
		}
		return v
	}

	// frame 16 is inside the window using the codeword in force
	runFrames(t, s, 16)
	assert.Equal(t, uint64(0x0C0C0C0C0C0C0C0^0x0B0B0B0B0B0B0B0), oskey())
	// generation A keeps control of the codeword
	assert.Equal(t, uint64(0x0C0C0C0C0C0C0C0), s.Snapshot().Codeword)

	// frame 64 uses the answer of the next generation A block
	runFrames(t, s, 48)
	assert.Equal(t, uint64(0x0A1A1A1A1A1A1A1^0x0B0B0B0B0B0B0B0), oskey())
	assert.Equal(t, uint64(0x0A0A0A0A0A0A0A0), s.Snapshot().Codeword)
}

func TestScheduler_SimulcryptSkipsSharedBlocks(t *testing.T) {
	a, err := scheduler.NewTrackA([]*blocks.Block{makeBlock(0x20, 0x1, 0, true)}, 5, nil)
	require.NoError(t, err)
	free := makeBlock(0x40, 0x2, 9, false)
	b, err := scheduler.NewTrackB([]*blocks.Block{free}, nil)
	require.NoError(t, err)
	s := scheduler.New(a, b, 0)
	require.NoError(t, s.Start())

	before := free.Slot(0)
	runFrames(t, s, 64)
	assert.Equal(t, before, free.Slot(0))
}

func TestScheduler_LineGenerator(t *testing.T) {
	a, err := scheduler.NewTrackA([]*blocks.Block{makeBlock(0, 0x0123, 0, false)}, 5, nil)
	require.NoError(t, err)
	s := scheduler.New(a, nil, 0x0456)
	require.NoError(t, s.Start())

	var want prbs.Generator
	for frame := range 3 {
		require.NoError(t, s.Frame())
		want.Reset(prbs.InitWord(0x0456, uint8(frame)))
		for range 10 {
			assert.Equal(t, want.Next(), s.Next())
		}
	}
}

func TestScheduler_FreeAccessIsPeriodic(t *testing.T) {
	blk := makeBlock(0x00, prbs.FreeAccessCodeword, 0, false)
	a, err := scheduler.NewTrackA([]*blocks.Block{blk}, 5, nil)
	require.NoError(t, err)
	s := scheduler.New(a, nil, prbs.FreeAccessCodeword)
	require.NoError(t, s.Start())

	require.NoError(t, s.Frame())
	first := *s.RecordA()
	runFrames(t, s, 10239)
	require.NoError(t, s.Frame())
	assert.Equal(t, first, *s.RecordA())
	assert.Equal(t, prbs.FreeAccessCodeword, s.Snapshot().Codeword)
}
