package binutils

// Reverse8 mirrors the bit order of a byte, so that bit 0 becomes bit 7
func Reverse8(b byte) byte {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// ReverseBits mirrors the lowest n bits of v.
// Bits above n are discarded.
func ReverseBits(v uint64, n int) uint64 {
	var r uint64
	for ; n > 0; n-- {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

// RotateLeft8 rotates a byte left by a single bit
func RotateLeft8(b byte) byte {
	return (b << 1) | (b >> 7)
}

// SwapNibbles exchanges the high and low nibble of a byte
func SwapNibbles(b byte) byte {
	return (b >> 4) | (b << 4)
}

// Checksum returns the byte that makes the modulo-256 sum
// of the first 31 bytes of a message and itself equal to zero
func Checksum(msg []byte) byte {
	var sum byte
	for _, b := range msg[:31] {
		sum += b
	}
	return ^sum + 1
}
