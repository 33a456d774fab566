package kernel

import (
	"github.com/sergeii/paytv/pkg/binutils"
)

const (
	BufLen    = 12
	DigestLen = 8
	LUTLen    = 256
	SecretLen = 32
)

var initBuf = [BufLen]byte{
	0xC1, 0x16, 0x3C, 0x8D, 0xC0, 0x62,
	0xB8, 0x33, 0xBE, 0xD8, 0x4B, 0xE1,
}

// Tables holds the substitution table and the secret
// that are burnt into the card
type Tables struct {
	LUT    [LUTLen]byte
	Secret [SecretLen]byte
}

// Kernel is the byte hash running alongside the ASIC on the series 10 cards.
// The working buffer is split in two areas, the first 5 bytes and the next 7,
// each with its own rotating cursor.
type Kernel struct {
	tables *Tables
	buf    [BufLen]byte
	p5     int
	p7     int
	b      byte
}

func New(tables *Tables) *Kernel {
	k := &Kernel{tables: tables}
	k.Init()
	return k
}

func (k *Kernel) Init() {
	k.buf = initBuf
	k.p5 = 0
	k.p7 = 5
	k.b = 0
}

func (k *Kernel) Hash(v byte) {
	for x := range 2 {
		if x == 0 {
			k.p5 = (k.p5 + 1) % 5
		} else {
			k.p7 = 5 + (k.p7-4)%7
		}

		k.buf[k.p5] = binutils.RotateLeft8(k.buf[k.p5] + v)
		k.buf[k.p7] = binutils.RotateLeft8(k.buf[k.p7] ^ k.buf[k.p5])

		a := k.buf[k.p7] - k.b
		k.b = binutils.RotateLeft8(a)
		v ^= k.tables.LUT[a]

		k.buf[k.p5] ^= k.tables.Secret[k.b&0x0F]
		k.buf[k.p7] ^= k.tables.Secret[(k.b>>4)+0x10]
	}
}

// XORByte returns the keystream byte for the current state
func (k *Kernel) XORByte() byte {
	return (k.buf[k.p5] - k.buf[k.p7]) ^ k.b
}

// Digest runs the finishing rounds and returns the bytes
// that are fed back into the ASIC to produce the message hash
func (k *Kernel) Digest() [DigestLen]byte {
	for range 8 {
		nb := k.b & 0x0F
		a := k.buf[k.p7]
		if nb == 0 {
			a = (a << 4) + (a >> 4) + 0x0F
		} else {
			hi := a >> 4
			a = (a << 4) | (hi/nb + hi%nb)
		}
		a = (a << 2) | (a >> 6)
		k.Hash(a)
	}

	var out [DigestLen]byte
	copy(out[:4], k.buf[0:4])
	copy(out[4:], k.buf[5:9])
	return out
}
