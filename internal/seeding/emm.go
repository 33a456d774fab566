package seeding

import (
	"errors"
	"fmt"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/carddata"
	"github.com/sergeii/paytv/internal/modes"
	"github.com/sergeii/paytv/pkg/kernel"
)

const (
	emmSlot = 2
	// serial prefix byte of the series 09 cards
	p09SerialPrefix = 0xA9
	// the second generation keeps the serial mask source in bytes 5 and 6
	serialPrefixB = 0x81
	// Sky NZ cards have serial numbers starting with 08
	nzSerialPrefix = 0x08
)

var ErrEMMUnsupported = errors.New("mode does not support EMMs")

var emmHeaders = map[modes.EMMScheme][7]byte{
	modes.EMMNZ:  {0xF0, 0x0E, 0x1F, 0x20, 0x00, 0x00, 0x02},
	modes.EMMP07: {0xE0, 0x3F, 0x3E, 0xEC, 0x1C, 0x60, 0x0F},
	modes.EMMP09: {0xE1, 0x52, 0x01, 0x25, 0x80, 0xFF, 0x20},
	modes.EMMB:   {0xE1, 0x81, 0x36, 0x00, 0xFF, 0xFF, 0xB4},
}

type signer interface {
	Process(msg *[kernel.MessageLen]byte) uint64
}

// EMMWriter builds entitlement management messages addressed to a single card
type EMMWriter struct {
	mode   modes.Mode
	signer signer
}

func NewEMMWriter(mode modes.Mode, data *carddata.Data) (*EMMWriter, error) {
	if !mode.SupportsEMM() {
		return nil, fmt.Errorf("%w: %s", ErrEMMUnsupported, mode.Name)
	}
	w := &EMMWriter{mode: mode}
	var err error
	switch mode.EMM {
	case modes.EMMP09:
		w.signer, err = newP09(mode, data)
	default:
		w.signer, err = newP07(mode, data)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Write puts the EMM enabling or disabling the card into the EMM slot of the block
func (w *EMMWriter) Write(d *blocks.Data, serial uint32, enable bool, block int) {
	cmd := w.mode.EMMCommands[block+2]
	if enable {
		cmd = w.mode.EMMCommands[block]
	}

	prefix := w.mode.EMMByte
	switch w.mode.EMM {
	case modes.EMMNZ:
		serial |= nzSerialPrefix << 24
	case modes.EMMP09:
		prefix = p09SerialPrefix
	}

	msg := (*[kernel.MessageLen]byte)(&d.Messages[emmSlot])
	header := emmHeaders[w.mode.EMM]
	copy(msg[:], header[:])
	xorSerial(msg, cmd, serial, prefix)
	w.signer.Process(msg)
}

// xorSerial obfuscates the card command and the serial number with a mask
// derived from the message header
func xorSerial(msg *[kernel.MessageLen]byte, cmd byte, serial uint32, prefix byte) {
	var mask [4]byte
	if prefix == serialPrefixB {
		mask = kernel.SerialMask(msg[5], msg[6])
	} else {
		mask = kernel.SerialMask(msg[1], msg[2])
	}

	msg[3] = cmd ^ mask[0]
	msg[7] = prefix ^ mask[0]
	msg[8] = byte(serial>>24) ^ mask[1]
	msg[9] = byte(serial>>16) ^ mask[2]
	msg[10] = byte(serial>>8) ^ mask[3]
	msg[11] = byte(serial)
	for i := 12; i < kernel.SignedLen; i++ {
		msg[i] = msg[11]
	}
}
