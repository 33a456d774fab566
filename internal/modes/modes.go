package modes

import (
	"errors"
	"fmt"

	"github.com/sergeii/paytv/pkg/kernel"
)

var ErrUnknownMode = errors.New("unknown mode")

type Generation int

const (
	GenerationA Generation = iota + 1
	GenerationB
)

func (g Generation) String() string {
	switch g {
	case GenerationA:
		return "A"
	case GenerationB:
		return "B"
	}
	return "unknown"
}

func ParseGeneration(s string) (Generation, error) {
	switch s {
	case "A", "a":
		return GenerationA, nil
	case "B", "b":
		return GenerationB, nil
	}
	return 0, fmt.Errorf("%w: generation %q", ErrUnknownMode, s)
}

// Policy tells whether the messages of a mode are regenerated while the session runs
type Policy int

const (
	Static Policy = iota
	Dynamic
)

// Engine selects the seed generator producing the answers of a mode
type Engine int

const (
	EngineNone Engine = iota
	EngineP07
	EngineP09
	EngineP09Nano
	EngineXTEA
	EnginePPV
	EngineASIC
	EngineASICPPV
)

func (e Engine) String() string {
	switch e {
	case EngineP07:
		return "p07"
	case EngineP09:
		return "p09"
	case EngineP09Nano:
		return "p09nano"
	case EngineXTEA:
		return "xtea"
	case EnginePPV:
		return "ppv"
	case EngineASIC:
		return "asic"
	case EngineASICPPV:
		return "asicppv"
	default:
		return "none"
	}
}

type EMMScheme int

const (
	EMMNone EMMScheme = iota
	EMMNZ
	EMMP07
	EMMP09
	EMMB
)

// Mode is an immutable description of a named broadcast mode
type Mode struct {
	Name       string
	Generation Generation
	Policy     Policy
	Engine     Engine

	Variant   kernel.Variant
	Signature kernel.SignatureType
	Key       string // name of the key in the card data
	KeyOffset int

	// name of the message block template in the card data
	Template string
	// number of blocks in rotation
	Blocks int

	EMM EMMScheme
	// enable commands for blocks 0 and 1 followed by the matching disable commands
	EMMCommands [4]byte
	EMMByte     byte

	Channel   string
	ChannelID byte
	Date      byte
}

// Free reports whether the mode transmits the fixed free access data
func (m Mode) Free() bool {
	return m.Name == "free"
}

func (m Mode) SupportsEMM() bool {
	return m.EMM != EMMNone
}

// ECMSlot is the message slot carrying the entitlement control message
func (m Mode) ECMSlot() int {
	if m.Engine == EnginePPV {
		return 0
	}
	return 5
}

// OSDSlot is the message slot carrying the on-screen text of the current block
func (m Mode) OSDSlot() int {
	if m.Engine == EnginePPV {
		return 1
	}
	return 0
}

var (
	emmTAC   = [4]byte{0x08, 0x09, 0x28, 0x29}
	emmSky06 = [4]byte{0x20, 0x21, 0x03, 0x01}
	emmSky07 = [4]byte{0x2C, 0x20, 0x0C, 0x00}
	emmNZ    = [4]byte{0x23, 0x23, 0x03, 0x03}
	emmB     = [4]byte{0x1B, 0x1B, 0x1A, 0x1A}
)

func hacktv(label string) string {
	return fmt.Sprintf("   HACKTV    %-5s MODE ", label)
}

var registry = []Mode{
	{
		Name: "free", Generation: GenerationA, Template: "fa", Policy: Static, Blocks: 1,
		Channel: "                        ", ChannelID: 0x20,
	},
	{
		Name: "ppv", Generation: GenerationA, Template: "ppv", Policy: Dynamic, Engine: EnginePPV, Blocks: 1,
		Variant: kernel.Variant2, Signature: kernel.Signature2,
		Channel: "                        ", ChannelID: 0x20,
	},
	{
		Name: "jstv", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "jstv", Variant: kernel.Variant2, Signature: kernel.Signature2,
		Channel: hacktv("JSTV"), ChannelID: 0x20,
	},
	{
		Name: "sky02", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "sky", Variant: kernel.Variant1, Signature: kernel.Signature1,
		Channel: hacktv("SKY02"), Date: 0x01, ChannelID: 0x0E, EMMByte: 0xA2,
	},
	{
		Name: "sky03", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "sky", Variant: kernel.Variant2, Signature: kernel.Signature1,
		Channel: hacktv("SKY03"), Date: 0x01, ChannelID: 0x12, EMMByte: 0xA3,
	},
	{
		Name: "sky04", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "sky", KeyOffset: 0x20, Variant: kernel.Variant2, Signature: kernel.Signature1,
		Channel: hacktv("SKY04"), Date: 0x01, ChannelID: 0x14, EMMByte: 0xA4,
	},
	{
		Name: "sky05", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "sky", KeyOffset: 0x40, Variant: kernel.Variant2, Signature: kernel.Signature1,
		Channel: hacktv("SKY05"), Date: 0x0C, ChannelID: 0x1C, EMMByte: 0xA5,
	},
	{
		Name: "sky06", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "sky", KeyOffset: 0x40, Variant: kernel.Variant2, Signature: kernel.Signature1,
		EMM: EMMP07, EMMCommands: emmSky06, EMMByte: 0xA6,
		Channel: hacktv("SKY06"), Date: 0x05, ChannelID: 0x1C,
	},
	{
		Name: "sky07", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "sky", KeyOffset: 0x58, Variant: kernel.Variant2, Signature: kernel.Signature2,
		EMM: EMMP07, EMMCommands: emmSky07, EMMByte: 0xA7,
		Channel: hacktv("SKY07"), Date: 0x0C, ChannelID: 0x3A,
	},
	{
		Name: "sky09", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP09, Blocks: 2,
		Key: "sky09", Variant: kernel.Variant2, Signature: kernel.Signature2,
		EMM: EMMP09, EMMCommands: emmSky07, EMMByte: 0xA9,
		Channel: hacktv("SKY09"), Date: 0x0C, ChannelID: 0x43,
	},
	{
		Name: "sky09nano", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP09Nano, Blocks: 2,
		Key: "sky09", Variant: kernel.Variant2, Signature: kernel.Signature2,
		EMM: EMMP09, EMMCommands: emmSky07, EMMByte: 0xA9,
		Channel: "   SKY 09    NANO  MODE ", Date: 0x0C, ChannelID: 0x43,
	},
	{
		Name: "sky10", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineASIC, Blocks: 2,
		Channel: hacktv("SKY10"),
	},
	{
		Name: "sky10ppv", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineASICPPV, Blocks: 2,
		Channel: "HACKTV SKY10  PPV MODE  ",
	},
	{
		Name: "sky11", Generation: GenerationA, Template: "sky11", Policy: Static, Blocks: 2,
		Channel: hacktv("SKY11"),
	},
	{
		Name: "sky12", Generation: GenerationA, Template: "sky12", Policy: Static, Blocks: 2,
		Channel: hacktv("SKY12"),
	},
	{
		Name: "skynz01", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "skynz", Variant: kernel.Variant1, Signature: kernel.Signature2,
		EMM: EMMNZ, EMMCommands: emmNZ, EMMByte: 0x21,
		Channel: "   HACKTV   SKYNZ01 MODE", Date: 0x02, ChannelID: 0x0E,
	},
	{
		Name: "skynz02", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "skynz", Variant: kernel.Variant1, Signature: kernel.Signature2,
		EMM: EMMNZ, EMMCommands: emmNZ, EMMByte: 0x22,
		Channel: "   HACKTV   SKYNZ02 MODE", Date: 0x02, ChannelID: 0x0E,
	},
	{
		Name: "tac1", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "tac", Variant: kernel.Variant2, Signature: kernel.Signature2,
		EMM: EMMP07, EMMCommands: emmTAC,
		Channel: hacktv("TAC1"), ChannelID: 0x29,
	},
	{
		Name: "tac2", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "tac", KeyOffset: 0x40, Variant: kernel.Variant2, Signature: kernel.Signature2,
		EMM: EMMP07, EMMCommands: emmTAC,
		Channel: hacktv("TAC2"), ChannelID: 0x49,
	},
	{
		Name: "xtea", Generation: GenerationA, Template: "xtea", Policy: Dynamic, Engine: EngineXTEA, Blocks: 2,
		Channel: hacktv("XTEA"), ChannelID: 0x20,
	},
	{
		Name: "dmx", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "dmx", Variant: kernel.Variant2, Signature: kernel.Signature2,
		Channel: hacktv("DMX"), ChannelID: 0x12,
	},
	{
		Name: "scast", Generation: GenerationA, Template: "vc1", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "scast", Variant: kernel.Variant1, Signature: kernel.Signature2,
		Channel: "   HACKTV   SPTSCST MODE", Date: 0x01, ChannelID: 0x14,
	},
	{
		Name: "free", Generation: GenerationB, Template: "fa2", Policy: Static, Blocks: 1,
		Channel: "           ", ChannelID: 0x52,
	},
	{
		Name: "conditional", Generation: GenerationB, Template: "vc2", Policy: Dynamic, Engine: EngineP07, Blocks: 2,
		Key: "vc2", Variant: kernel.Variant2, Signature: kernel.Signature2,
		EMM: EMMB, EMMCommands: emmB, EMMByte: 0x81,
		Channel: "MULTICHOICE", Date: 0x82, ChannelID: 0x53,
	},
}

// Lookup finds the mode of the generation by its name
func Lookup(gen Generation, name string) (Mode, error) {
	for _, m := range registry {
		if m.Generation == gen && m.Name == name {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("%w: %s '%s'", ErrUnknownMode, gen, name)
}

// Names lists the modes of a generation in registry order
func Names(gen Generation) []string {
	names := make([]string, 0, len(registry))
	for _, m := range registry {
		if m.Generation == gen {
			names = append(names, m.Name)
		}
	}
	return names
}
