package seeding

import (
	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/modes"
)

const ecmTypeB = 0xF9

// StampECM writes the channel date and identifier into the control message slot
// of a block belonging to a dynamic mode. Other modes are left as they are.
func StampECM(mode modes.Mode, d *blocks.Data) {
	if mode.Policy != modes.Dynamic || mode.Engine == modes.EnginePPV {
		return
	}
	msg := &d.Messages[ecmSlot]
	switch mode.Generation {
	case modes.GenerationA:
		msg[1] = mode.Date
		msg[6] = mode.ChannelID
	case modes.GenerationB:
		msg[0] = ecmTypeB
		msg[1] = mode.Date
		msg[2] = mode.ChannelID
	}
}
