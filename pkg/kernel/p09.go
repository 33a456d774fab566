package kernel

import (
	"github.com/sergeii/paytv/pkg/binutils"
)

const (
	eepromBase = 0x1100

	nanoBufferLen = 15
	nanoCommand   = 0x80

	nanoEnd     = 0x03
	nanoAddress = 0x09
	nanoRead    = 0x30
	nanoStop    = 0x46
)

// Excerpt of the series 09 card EEPROM, starting at 0x1100.
// The nano commands read from it.
var eeprom = [128]byte{
	0x3F, 0x87, 0x4B, 0x10, 0xFE, 0x93, 0x05, 0x13,
	0x99, 0x49, 0x17, 0xAF, 0x3B, 0x87, 0x04, 0x1B,
	0x76, 0x3C, 0xEA, 0x5C, 0x7F, 0x37, 0xEA, 0xDF,
	0x7F, 0xEA, 0x93, 0xF7, 0x04, 0x29, 0x1D, 0xEF,
	0x13, 0x04, 0x37, 0x8C, 0x2E, 0x4D, 0x11, 0x00,
	0x43, 0x10, 0xD5, 0xC8, 0x9A, 0x02, 0xAA, 0x82,
	0x4D, 0x1E, 0x65, 0xA0, 0x00, 0xA0, 0x04, 0x43,
	0x10, 0xDD, 0x37, 0x92, 0x4D, 0x13, 0x01, 0x43,
	0x10, 0xDE, 0x15, 0x02, 0x93, 0x60, 0x15, 0x01,
	0x93, 0x64, 0x90, 0x5F, 0x13, 0x3F, 0x1D, 0x62,
	0x13, 0x7E, 0x1D, 0x5E, 0x13, 0x10, 0x1B, 0xD6,
	0x4D, 0x1D, 0x10, 0x33, 0x8D, 0x93, 0x02, 0x13,
	0x11, 0x1D, 0x4F, 0x13, 0x25, 0x1D, 0x4B, 0x33,
	0x8E, 0x1D, 0x47, 0x13, 0x21, 0x1D, 0x43, 0x13,
	0xB0, 0x1D, 0x3F, 0x13, 0x12, 0x1D, 0x3B, 0x43,
	0x10, 0xDE, 0x15, 0x04, 0x93, 0x4A, 0x13, 0x05,
}

// Nano describes the EEPROM read a nano command message asks the card to perform
type Nano struct {
	Offset byte // address offset from 0x1100, 0x00-0x40
	Count  byte // number of bytes to read minus one, 0x00-0x3E
}

// P09 is the hash used by the series 09 cards
type P09 struct {
	key [P09KeyLen]byte
}

func NewP09(key []byte) (*P09, error) {
	if len(key) < P09KeyLen {
		return nil, ErrKeyTooShort
	}
	p := &P09{}
	copy(p.key[:], key[:P09KeyLen])
	return p, nil
}

func (p *P09) round(out *[8]byte, in byte) {
	t := *out
	a := in
	for i := 0; i <= 4; i += 2 {
		b := a + p.key[t[i]&0x3F] - t[i+1]
		c := (t[i] - t[i+1]) ^ a
		m := uint16(b) * uint16(c)
		t[i+2] ^= byte(m)
		t[i+3] += byte(m >> 8)
		a = binutils.RotateLeft8(a) + 0x49
	}

	m := uint16(t[6]) * uint16(t[7])
	a = byte(m) + t[0]
	if a < t[0] {
		a++
	}
	t[0] = a + 0x39
	a = byte(m>>8) + t[1]
	if a < t[1] {
		a++
	}
	t[1] = a + 0x8F

	*out = t
}

// Process signs the message in place and returns the codeword
func (p *P09) Process(msg *[MessageLen]byte) uint64 {
	var cw [8]byte
	p.sign(msg, &cw)
	msg[MessageLen-1] = binutils.Checksum(msg[:])
	for range 64 {
		p.round(&cw, msg[MessageLen-1])
	}
	return ReverseCodeword(cw)
}

// ProcessNano turns the message into a nano command message that makes the card
// hash a piece of its EEPROM into the answer, signs it and returns the codeword
func (p *P09) ProcessNano(msg *[MessageLen]byte, nano Nano) uint64 {
	nano.Offset %= 0x41
	nano.Count %= 0x3F

	xor := SerialMask(msg[1], msg[2])
	msg[3] = xor[0] ^ nanoCommand

	var buf [nanoBufferLen]byte
	copy(buf[:], []byte{
		nanoAddress, eepromBase >> 8, nano.Offset,
		nanoRead, nano.Count,
		nanoEnd,
	})
	for i := range 6 {
		msg[12+i] = xor[2] ^ buf[i]
	}

	var cw [8]byte
	p.sign(msg, &cw)

	final := p.runNanos(&cw, buf)

	msg[MessageLen-1] = binutils.Checksum(msg[:])
	if final == 0 {
		final = msg[MessageLen-1]
	}
	for range 64 {
		p.round(&cw, final)
	}
	return ReverseCodeword(cw)
}

func (p *P09) sign(msg *[MessageLen]byte, cw *[8]byte) {
	for _, v := range msg[:SignedLen] {
		p.round(cw, v)
	}
	var b byte
	for i := SignedLen; i < MessageLen-1; i++ {
		p.round(cw, b)
		p.round(cw, b)
		b = cw[7]
		msg[i] = b
	}
}

// runNanos executes the nano commands and returns the position
// of the end marker, which replaces the checksum in the final rounds
func (p *P09) runNanos(cw *[8]byte, buf [nanoBufferLen]byte) byte {
	var addr int
	var data byte
	for i := 0; i < nanoBufferLen; i++ {
		switch buf[i] {
		case nanoEnd:
			return byte(i)
		case nanoAddress:
			addr = int(buf[i+1])<<8 | int(buf[i+2])
			p.round(cw, 0x63)
			p.round(cw, 0x00)
			i += 2
		case nanoRead:
			off := int(buf[i+1] & 0x7F)
			for x := off; x >= 0; x-- {
				data = eeprom[addr+x-eepromBase]
				p.round(cw, data)
			}
			p.round(cw, data)
			p.round(cw, 0xFF)
			i++
		case nanoStop:
			return 0
		}
	}
	return 0
}
