package kernel

import (
	"errors"

	"github.com/sergeii/paytv/pkg/binutils"
)

type Variant int

const (
	Variant1 Variant = iota + 1
	Variant2
)

type SignatureType int

const (
	Signature1 SignatureType = iota + 1
	Signature2
)

const (
	P07KeyLen = 32
	P09KeyLen = 64
)

var ErrKeyTooShort = errors.New("key is too short")

// P07 is the hash used by the cards up to the series 07.
// It works on a 32 byte window of the card key.
type P07 struct {
	key     [P07KeyLen]byte
	variant Variant
	sig     SignatureType
}

func NewP07(key []byte, offset int, variant Variant, sig SignatureType) (*P07, error) {
	if offset < 0 || len(key) < offset+P07KeyLen {
		return nil, ErrKeyTooShort
	}
	p := &P07{variant: variant, sig: sig}
	copy(p.key[:], key[offset:offset+P07KeyLen])
	return p, nil
}

func (p *P07) round(out *[8]byte, oi int, in byte) int {
	out[oi] ^= in
	b := p.key[out[oi]>>4]
	c := p.key[(out[oi]&0x0F)+16]
	if p.variant == Variant1 {
		c = c + b + in
	} else {
		c = binutils.RotateLeft8(^(c+b)) + in
	}
	c = binutils.SwapNibbles(binutils.RotateLeft8(c))
	oi = (oi + 1) & 7
	out[oi] ^= c
	return oi
}

// Process signs the message in place, writing the signature into bytes 27 to 30
// and the checksum into the last byte, and returns the codeword the card would answer with
func (p *P07) Process(msg *[MessageLen]byte) uint64 {
	var cw [8]byte
	oi := 0

	for _, v := range msg[:SignedLen] {
		oi = p.round(&cw, oi, v)
	}

	var b byte
	for i := SignedLen; i < MessageLen-1; i++ {
		if p.sig == Signature1 {
			for range 3 {
				oi = p.round(&cw, oi, b)
			}
			msg[i] = cw[oi]
		} else {
			oi = p.round(&cw, oi, b)
			oi = p.round(&cw, oi, b)
			b = cw[oi]
			msg[i] = b
			oi = (oi + 1) & 7
		}
	}

	msg[MessageLen-1] = binutils.Checksum(msg[:])

	for range 64 {
		oi = p.round(&cw, oi, msg[MessageLen-1])
	}

	return ReverseCodeword(cw)
}
