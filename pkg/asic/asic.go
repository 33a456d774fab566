package asic

import (
	"errors"

	"github.com/rs/zerolog"
)

const (
	RegisterBits = 105
	FIFOBits     = 64

	DefaultIterations = 1025
	carryBit          = 104
)

const (
	CmdPush       byte = 0x01
	CmdFlags      byte = 0x21
	CmdIterations byte = 0x31
	CmdLoad96     byte = 0x51
	CmdLoad64     byte = 0x61
	CmdLoad72     byte = 0x71
	CmdLoad80     byte = 0x81
	CmdLoad88     byte = 0x91
	CmdRead       byte = 0x13
)

const (
	FlagClear   byte = 0x01
	FlagCrypto  byte = 0x02
	FlagCapture byte = 0x04
)

var loadOffsets = map[byte]int{
	CmdLoad96: 96,
	CmdLoad64: 64,
	CmdLoad72: 72,
	CmdLoad80: 80,
	CmdLoad88: 88,
}

var ErrNoResponse = errors.New("no pending response")

// ASIC emulates the custom chip of the series 10 cards:
// a 105 bit shift register with a non-linear feedback network,
// fed by a 64 bit FIFO and controlled by 2-byte commands
type ASIC struct {
	reg        [RegisterBits]bool
	fifo       [FIFOBits]bool
	iterations int
	crypto     bool
	capture    bool
	rp         int
	pending    bool
	response   byte
	logger     *zerolog.Logger
}

func New(logger *zerolog.Logger) *ASIC {
	a := &ASIC{logger: logger}
	a.Reset()
	return a
}

// Reset clears the register and restores the power-on state
func (a *ASIC) Reset() {
	a.reg = [RegisterBits]bool{}
	for i := range a.fifo {
		a.fifo[i] = true
	}
	a.iterations = DefaultIterations
	a.crypto = false
	a.capture = false
	a.rp = 0
	a.pending = false
	a.response = 0
}

// Send executes a stream of commands.
// A malformed stream is logged and the rest of it is dropped.
func (a *ASIC) Send(data ...byte) {
	for pos := 0; pos < len(data); pos += 2 {
		cmd := data[pos]

		if cmd == CmdRead {
			a.response = a.readNext()
			a.pending = true
			if len(data)-pos > 1 {
				a.logger.Warn().Hex("data", data[pos+1:]).Msg("Trailing data sent while ASIC is responding")
				return
			}
			continue
		}

		if !isKnown(cmd) {
			a.logger.Warn().Uint8("cmd", cmd).Msg("Unknown command received by ASIC")
			return
		}
		if pos+1 >= len(data) {
			a.logger.Warn().Uint8("cmd", cmd).Msg("Missing data for ASIC command")
			return
		}
		arg := data[pos+1]

		switch cmd {
		case CmdPush:
			a.push(arg)
		case CmdFlags:
			a.crypto = arg&FlagCrypto != 0
			a.capture = arg&FlagCapture != 0
			if arg&FlagClear != 0 {
				for i := range FIFOBits {
					a.reg[i] = false
				}
				a.reg[carryBit] = false
				a.rp = 0
			}
		case CmdIterations:
			if arg > 0 {
				a.iterations = int(arg)*1024 + 1
			} else {
				a.iterations = 0
			}
		default:
			a.load(loadOffsets[cmd], arg)
		}
	}
}

// SendFromDecoder feeds bytes seen on the decoder interface.
// They only reach the FIFO while capture is enabled.
func (a *ASIC) SendFromDecoder(data ...byte) {
	if !a.capture {
		return
	}
	for _, b := range data {
		a.push(b)
	}
}

// Receive pops the pending response byte
func (a *ASIC) Receive() (byte, error) {
	if !a.pending {
		a.logger.Warn().Msg("No pending response from ASIC")
		return 0, ErrNoResponse
	}
	a.pending = false
	return a.response, nil
}

func isKnown(cmd byte) bool {
	switch cmd {
	case CmdPush, CmdFlags, CmdIterations:
		return true
	}
	_, ok := loadOffsets[cmd]
	return ok
}

func (a *ASIC) load(offset int, v byte) {
	for i := range 8 {
		a.reg[offset+i] = v&(1<<i) != 0
	}
}

func (a *ASIC) push(v byte) {
	copy(a.fifo[8:], a.fifo[:FIFOBits-8])
	for i := range 8 {
		a.fifo[i] = v&(1<<i) != 0
	}
	if a.crypto {
		for i := range FIFOBits {
			a.reg[i] = a.reg[i] != a.fifo[i]
		}
		a.iterate(a.iterations)
	}
}

func (a *ASIC) iterate(rounds int) {
	for range rounds {
		a.shift()
	}
}

func (a *ASIC) shift() {
	bit := feedback(&a.reg)
	copy(a.reg[1:], a.reg[:RegisterBits-1])
	a.reg[0] = bit
}

func (a *ASIC) readNext() byte {
	var v byte
	for i := range 8 {
		if a.reg[a.rp*8+i] {
			v |= 1 << i
		}
	}
	a.rp = (a.rp + 1) % 8
	return v
}
