package logutils

import (
	"strconv"
	"strings"
)

func ShortCallerFormatter(file string, line int) string {
	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	file = short
	return file + ":" + strconv.Itoa(line)
}

// HexBytes formats bytes as space separated upper case hex pairs, e.g. "F8 86 03"
func HexBytes(data []byte) string {
	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(digits[b>>4])
		sb.WriteByte(digits[b&0x0F])
	}
	return sb.String()
}

// HexCodeword formats a codeword as the card outputs it, least significant byte first
func HexCodeword(cw uint64) string {
	var data [8]byte
	for i := range data {
		data[i] = byte(cw >> (8 * i))
	}
	return HexBytes(data[:])
}
