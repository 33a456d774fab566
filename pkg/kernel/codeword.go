package kernel

import (
	"github.com/sergeii/paytv/pkg/binutils"
)

// MessageLen is the length of a conditional access message.
// The last byte is the checksum of the preceding 31 bytes.
const MessageLen = 32

// SignedLen is the number of message bytes covered by the signature
const SignedLen = 27

// ReverseCodeword packs the card answer little-endian.
// The high nibble of the last byte is unused and is cleared.
func ReverseCodeword(answer [8]byte) uint64 {
	answer[7] &= 0x0F
	var cw uint64
	for i, b := range answer {
		cw |= uint64(b) << (i * 8)
	}
	return cw
}

// SerialMask derives the four bytes used to hide card commands
// and serial numbers from a pair of message bytes
func SerialMask(x, y byte) [4]byte {
	var mask [4]byte
	a := binutils.SwapNibbles(x ^ y)
	b := y
	for i := range mask {
		b = binutils.RotateLeft8(b) + a
		mask[i] = b
	}
	return mask
}
