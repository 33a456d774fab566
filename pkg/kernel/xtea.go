package kernel

import (
	"encoding/binary"
)

const (
	xteaDelta  = 0x9E3779B9
	xteaCycles = 32
	// the card reports the cipher state after this many cycles
	xteaCheckpoint = 8

	xteaCommand = 0x63
)

var xteaKey = [4]uint32{0x00112233, 0x44556677, 0x8899AABB, 0xCCDDEEFF}

// ProcessXTEA encrypts message bytes 11 to 18 with XTEA.
// The intermediate state is written into bytes 19 to 26
// and the final block becomes the codeword.
func ProcessXTEA(msg *[MessageLen]byte) uint64 {
	msg[6] = xteaCommand

	v1 := binary.LittleEndian.Uint32(msg[11:15])
	v0 := binary.LittleEndian.Uint32(msg[15:19])

	var sum uint32
	for i := range xteaCycles {
		v0 += (((v1 << 4) ^ (v1 >> 5)) + v1) ^ (sum + xteaKey[sum&3])
		sum += xteaDelta
		v1 += (((v0 << 4) ^ (v0 >> 5)) + v0) ^ (sum + xteaKey[(sum>>11)&3])

		if i == xteaCheckpoint-1 {
			binary.LittleEndian.PutUint32(msg[19:23], v1)
			binary.LittleEndian.PutUint32(msg[23:27], v0)
		}
	}

	return (uint64(v0)<<32 | uint64(v1)) & 0x0FFFFFFFFFFFFFFF
}
