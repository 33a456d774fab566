package vbi

import (
	"github.com/sergeii/paytv/pkg/binutils"
)

// Sequence is a cycle of packet header bytes
type Sequence [8]byte

var (
	SequenceA = Sequence{0x87, 0x96, 0xA5, 0xB4, 0xC3, 0xD2, 0xE1, 0x87}
	SequenceB = Sequence{0x80, 0x91, 0xA2, 0xB3, 0xC4, 0xD5, 0xE6, 0xF7}
)

// First returns the header byte for the first half of a message
func (s Sequence) First(n int) byte {
	return s[n&7]
}

// Second returns the header byte for the second half of a message
func (s Sequence) Second(n int) byte {
	return binutils.SwapNibbles(s[n&7])
}
