package prbs

import (
	"github.com/sergeii/paytv/pkg/binutils"
)

const (
	sr1Bits = 31
	sr2Bits = 29
	sr1Mask = 1<<sr1Bits - 1
	sr2Mask = 1<<sr2Bits - 1
	sr1Taps = 0x7BB88888
	sr2Taps = 0x17A2C100

	// CodewordMask limits codewords and initialization words to 60 bits
	CodewordMask = 1<<60 - 1

	clocksPerLine = 16
)

// FreeAccessCodeword is the codeword used by free access modes
const FreeAccessCodeword uint64 = CodewordMask

// Generator is the pair of linear feedback shift registers that picks
// the cut point for each scrambled line, plus the 16-bit result register
type Generator struct {
	sr1 uint32
	sr2 uint32
	c   uint16
}

// InitWord combines a codeword with the frame counter.
// The counter byte is repeated eight times, every other copy inverted.
func InitWord(cw uint64, fcnt uint8) uint64 {
	iw := uint64(^fcnt)<<8 | uint64(fcnt)
	iw |= iw<<16 | iw<<32 | iw<<48
	return (iw ^ cw) & CodewordMask
}

// Reset loads both shift registers from an initialization word.
// The result register keeps its value.
func (g *Generator) Reset(iw uint64) {
	g.sr1 = uint32(iw & sr1Mask)
	g.sr2 = uint32((iw >> sr1Bits) & sr2Mask)
}

// Next returns the cut value produced for the previous line
// and then clocks the generator for the current one
func (g *Generator) Next() int {
	v := int(g.c>>8) & 0xFF
	for range clocksPerLine {
		g.clock()
	}
	return v
}

func (g *Generator) clock() {
	if g.sr1&1 != 0 {
		g.sr1 = (g.sr1 >> 1) ^ sr1Taps
	} else {
		g.sr1 >>= 1
	}
	if g.sr2&1 != 0 {
		g.sr2 = (g.sr2 >> 1) ^ sr2Taps
	} else {
		g.sr2 >>= 1
	}

	addr := binutils.ReverseBits(uint64(g.sr2), sr2Bits) & 0x1F
	if addr == 31 {
		addr = 30
	}

	bit := (binutils.ReverseBits(uint64(g.sr1), sr1Bits) >> addr) & 1
	g.c = (g.c >> 1) | uint16(bit)<<15
}

// CutPoint maps a cut value onto a position on the reference grid,
// relative to the left edge of the scrambled region
func CutPoint(v int) int {
	return 105 + (0xFF-v)*2
}
