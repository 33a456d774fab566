package seeding

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/pkg/kernel"
)

const (
	osdTextA     = 0x20
	osdTextB     = 0x21
	osdSerial    = 0x24
	osdLenBase   = 0x60
	osdShowKeys  = 0xF5
	osdMaxLength = kernel.MessageLen - 4
)

var ErrNameTooLong = errors.New("channel name is too long")

func encodeText(text string) ([]byte, error) {
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", text, err)
	}
	if len(encoded) > osdMaxLength {
		return nil, fmt.Errorf("%w: %q", ErrNameTooLong, text)
	}
	return encoded, nil
}

// ChannelNameA puts the channel name on-screen message into the first slot
func ChannelNameA(d *blocks.Data, name string) error {
	text, err := encodeText(name)
	if err != nil {
		return err
	}
	msg := &d.Messages[0]
	msg[0] = osdTextA
	msg[1] = 0x00
	msg[2] = osdLenBase + byte(len(text))
	copy(msg[3:], text)
	return nil
}

// ChannelNameB marks the first slot of every block as an on-screen message
// and writes the channel name into the first block
func ChannelNameB(bs []*blocks.Data, name string) error {
	text, err := encodeText(name)
	if err != nil {
		return err
	}
	for _, d := range bs {
		d.Messages[0][0] = osdTextB
		d.Messages[0][1] = 0x02
	}
	if len(bs) == 0 {
		return nil
	}
	msg := &bs[0].Messages[0]
	msg[2] = osdLenBase + byte(len(text))
	copy(msg[3:], text)
	return nil
}

// ShowSerial makes decoders display the card serial number
func ShowSerial(d *blocks.Data, slot int) {
	d.Messages[slot][0] = osdSerial
}

// ShowKeys displays the memory card key pair currently being tried
func ShowKeys(d *blocks.Data, slot int, ka, kb byte) {
	msg := &d.Messages[slot]
	msg[0] = osdTextA
	msg[1] = 0x00
	msg[2] = osdShowKeys
	text := fmt.Sprintf("KA - 0X%02X   KB - 0X%02X", ka, kb)
	for i := range 22 {
		msg[3+i] = 0
	}
	copy(msg[3:], text)
}

// NextKeys advances the memory card to the next key pair
func NextKeys(ppv *kernel.PPVCard) (byte, byte) {
	if ppv[5] == 0xFF {
		ppv[6]++
	}
	ppv[5]++
	return ppv.KeyA(), ppv.KeyB()
}
