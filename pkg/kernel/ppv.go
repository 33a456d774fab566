package kernel

import (
	"github.com/sergeii/paytv/pkg/binutils"
)

const (
	PPVCardLen   = 7
	PPVSerialLen = 5
	ppvHashLen   = 22
)

// Code table found at 0x1421 of the memory card verifier
var ppvCodes = [8]byte{0x59, 0x2B, 0x71, 0x22, 0xCF, 0xB7, 0x33, 0x4F}

// Four moduli, also used as a single 256 byte table
var ppvModuli = [256]byte{
	0xB1, 0xFD, 0x91, 0x2C, 0x6D, 0xB8, 0xB6, 0xBE,
	0x15, 0x08, 0x0D, 0xE2, 0x83, 0xB1, 0xE8, 0x0B,
	0x36, 0xB0, 0x47, 0xEA, 0xA1, 0x10, 0xA7, 0x8E,
	0xAA, 0x2E, 0x94, 0xC8, 0x47, 0x41, 0xFE, 0x87,
	0x7E, 0xEC, 0x67, 0x45, 0xAB, 0x89, 0x84, 0xA5,
	0xEF, 0xCD, 0x23, 0x01, 0x67, 0x45, 0x2D, 0x46,
	0xAB, 0xA9, 0xEF, 0xCD, 0x24, 0x93, 0x02, 0x67,
	0x1B, 0x4F, 0x81, 0x95, 0xA7, 0x01, 0x00, 0x01,

	0x29, 0x9F, 0xC9, 0x85, 0x19, 0xB9, 0x53, 0x53,
	0x92, 0x52, 0x90, 0x5A, 0x44, 0x2D, 0xCA, 0xD4,
	0x90, 0x8D, 0x3A, 0xAD, 0xFB, 0x2B, 0x00, 0x9D,
	0xE4, 0x0C, 0xB8, 0x81, 0x28, 0xBF, 0xE9, 0x0B,
	0x85, 0x7C, 0xAD, 0x90, 0x41, 0xE7, 0x7A, 0xBA,
	0x9D, 0xEF, 0x7E, 0x83, 0x82, 0x0D, 0x0A, 0xCE,
	0x64, 0x77, 0x83, 0x1E, 0x1D, 0x80, 0x26, 0xF5,
	0x48, 0xA4, 0x39, 0x6E, 0xC3, 0x01, 0x00, 0x01,

	0x0D, 0x2D, 0xC9, 0x25, 0x51, 0x4A, 0xA3, 0x85,
	0x8B, 0xDC, 0xC7, 0x25, 0x40, 0x0C, 0xB8, 0x61,
	0x0C, 0xF9, 0xC1, 0x21, 0xBD, 0x3D, 0x57, 0x6D,
	0x6C, 0x71, 0x2F, 0xA4, 0xCC, 0x93, 0x40, 0x37,
	0xDE, 0x32, 0x39, 0x65, 0xC1, 0x8D, 0x63, 0x6A,
	0x49, 0xB6, 0xE1, 0xD0, 0x73, 0x5E, 0xDE, 0x9C,
	0x12, 0xA7, 0xC3, 0x34, 0x5E, 0x38, 0x8C, 0x73,
	0x05, 0x4E, 0x63, 0x41, 0x0A, 0x01, 0x00, 0x01,

	0xE5, 0x20, 0x5B, 0xD5, 0x56, 0xD1, 0x9B, 0xA9,
	0xA5, 0x54, 0xB7, 0x83, 0x16, 0xDE, 0x36, 0x0B,
	0xD6, 0x03, 0x58, 0x1B, 0xE0, 0x0D, 0x36, 0x72,
	0xAD, 0x6B, 0x69, 0xDA, 0xD9, 0x99, 0x16, 0xBC,
	0xCB, 0x24, 0xF6, 0x65, 0xB4, 0x45, 0xA6, 0xBB,
	0xED, 0x53, 0x3E, 0xB0, 0xF7, 0xB8, 0xF5, 0xEA,
	0xA6, 0xB7, 0xAF, 0x64, 0xED, 0xA2, 0xE7, 0xFE,
	0xC2, 0x57, 0xC4, 0xD1, 0x0B, 0x01, 0x00, 0x01,
}

// PPVCard is the content of a memory card: the serial number followed by the key pair
type PPVCard [PPVCardLen]byte

var DefaultPPVCard = PPVCard{0x6D, 0xC1, 0x08, 0x44, 0x02, 0x28, 0x3D}

func (c PPVCard) KeyA() byte {
	return c[5]
}

func (c PPVCard) KeyB() byte {
	return c[6]
}

// HashPPV runs the verifier hash over buf in place
func HashPPV(buf []byte) {
	n := len(buf)
	for _, code := range ppvCodes {
		for j := 1; j < n; j++ {
			m := code + buf[j-1]
			buf[j] = binutils.RotateLeft8(buf[j] ^ ppvModuli[m])
		}
		buf[0] ^= buf[n-1]
	}
}

// PPVCodeword computes the codeword a memory card derives from a message.
// The message itself is left untouched.
func PPVCodeword(msg *[MessageLen]byte, card PPVCard) uint64 {
	var serial [PPVSerialLen]byte
	copy(serial[:], card[:PPVSerialLen])
	HashPPV(serial[:])

	var buf [MessageLen]byte
	copy(buf[:], msg[:MessageLen-1])
	buf[1] ^= serial[0] ^ card.KeyA()
	buf[2] ^= serial[1] ^ card.KeyB()

	HashPPV(buf[1 : 1+ppvHashLen])

	var answer [8]byte
	copy(answer[:], buf[1:9])
	return ReverseCodeword(answer)
}
