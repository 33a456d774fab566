package vbi

import (
	"github.com/sergeii/paytv/pkg/binutils"
)

const (
	HalfLen       = 8  // message bytes carried by one packet half
	PayloadLen    = 16 // message bytes carried by a record
	RawLen        = 20 // two halves of header, data and checksum
	RecordLen     = 40 // hamming coded record
	LinesPerField = 4
	LinesPerFrame = LinesPerField * 2
	BytesPerLine  = RecordLen / LinesPerFrame
	BitsPerLine   = BytesPerLine * 8
)

// Hamming codes for every nibble value
var hamming = [16]byte{
	0x15, 0x02, 0x49, 0x5E, 0x64, 0x73, 0x38, 0x2F,
	0xD0, 0xC7, 0x8C, 0x9B, 0xA1, 0xB6, 0xFD, 0xEA,
}

// Offsets of the interleaved groups. Neighbouring groups share bytes,
// so the groups must be processed in this order
var groupOffsets = [6]int{0, 6, 12, 20, 26, 32}

// Record holds the data for all VBI lines of a single frame
type Record [RecordLen]byte

// Line returns the bytes carried by the n-th VBI line of the frame,
// counting from the first line of the top field
func (r *Record) Line(n int) []byte {
	return r[n*BytesPerLine : (n+1)*BytesPerLine]
}

// Encode builds a line record out of 16 message bytes and two header bytes.
// The first header byte and the first half of data form the first packet,
// the second header byte and the rest of the data form the second one.
// Each packet is followed by its additive checksum.
func Encode(data []byte, a, b byte) Record {
	var rec Record

	raw := packets(data, a, b)
	for i, v := range raw {
		rec[i*2] = hamming[v>>4]
		rec[i*2+1] = hamming[v&0x0F]
	}

	interleave(&rec)

	return rec
}

func packets(data []byte, a, b byte) [RawLen]byte {
	var raw [RawLen]byte
	for half, hdr := range [2]byte{a, b} {
		pkt := raw[half*(RawLen/2) : (half+1)*(RawLen/2)]
		pkt[0] = hdr
		sum := hdr
		for i := range HalfLen {
			pkt[1+i] = data[half*HalfLen+i]
			sum += pkt[1+i]
		}
		pkt[HalfLen+1] = sum
	}
	return raw
}

func interleave(rec *Record) {
	for _, offset := range groupOffsets {
		interleaveGroup(rec[offset : offset+8])
	}
}

// interleaveGroup transposes an 8x8 bit matrix,
// with the first and the last row mirrored beforehand
func interleaveGroup(s []byte) {
	var r [8]byte
	s[0] = binutils.Reverse8(s[0])
	s[7] = binutils.Reverse8(s[7])
	for i := range 8 {
		mask := byte(0x80) >> i
		for j := range 8 {
			if s[j]&mask != 0 {
				r[i] |= 1 << j
			}
		}
	}
	copy(s, r[:])
}
