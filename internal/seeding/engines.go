package seeding

import (
	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/card"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/logutils"
	"github.com/sergeii/paytv/pkg/random"
)

const ecmSlot = 5

var (
	asicPlaintext = [kernel.MessageLen]byte{
		0xF8, 0x86, 0x03, 0x23, 0x62, 0x40, 0x00, 0x98,
		0xFE, 0xFE,
	}
	// purchases event 0x42 on a card with pay per view enabled
	asicPPVPlaintext = [kernel.MessageLen]byte{
		0xF8, 0x86, 0x9C, 0xF0, 0x42, 0x40, 0x00, 0x98,
		0xFE, 0xFE,
	}
)

type nopGenerator struct{}

func (nopGenerator) Seed(*blocks.Data) error {
	return nil
}

type p07Generator struct {
	p   *kernel.P07
	rnd random.Source
}

func (g *p07Generator) Seed(d *blocks.Data) error {
	msg := (*[kernel.MessageLen]byte)(&d.Messages[ecmSlot])
	random.FillBytes(g.rnd, msg[12:kernel.SignedLen])
	d.Answer = g.p.Process(msg)
	d.HasAnswer = true
	return nil
}

type p09Generator struct {
	p    *kernel.P09
	nano bool
	rnd  random.Source
}

func (g *p09Generator) Seed(d *blocks.Data) error {
	msg := (*[kernel.MessageLen]byte)(&d.Messages[ecmSlot])
	random.FillBytes(g.rnd, msg[12:kernel.SignedLen])
	if g.nano {
		nano := kernel.Nano{
			Offset: byte(g.rnd.Intn(0x41)),
			Count:  byte(g.rnd.Intn(0x3F)),
		}
		d.Answer = g.p.ProcessNano(msg, nano)
	} else {
		d.Answer = g.p.Process(msg)
	}
	d.HasAnswer = true
	return nil
}

type xteaGenerator struct {
	rnd random.Source
}

func (g *xteaGenerator) Seed(d *blocks.Data) error {
	msg := (*[kernel.MessageLen]byte)(&d.Messages[ecmSlot])
	random.FillBytes(g.rnd, msg[11:])
	d.Answer = kernel.ProcessXTEA(msg)
	d.HasAnswer = true
	return nil
}

type ppvGenerator struct {
	card *kernel.PPVCard
	rnd  random.Source
}

func (g *ppvGenerator) Seed(d *blocks.Data) error {
	msg := (*[kernel.MessageLen]byte)(&d.Messages[0])
	msg[21] = random.RandByte(g.rnd)
	msg[22] = random.RandByte(g.rnd)
	d.Answer = kernel.PPVCodeword(msg, *g.card)
	d.HasAnswer = true
	return nil
}

type asicGenerator struct {
	card    *card.Card
	ppv     bool
	rnd     random.Source
	logger  *zerolog.Logger
	showECM bool
}

func (g *asicGenerator) Seed(d *blocks.Data) error {
	plain := asicPlaintext
	if g.ppv {
		plain = asicPPVPlaintext
	}
	plain[10] = random.RandByte(g.rnd)

	if g.showECM {
		g.logger.Info().Str("ecm", logutils.HexBytes(plain[:])).Msg("Plain control message")
	}

	res, err := g.card.Encrypt(plain[:card.MaxPlainLen])
	if err != nil {
		return err
	}

	d.Messages[ecmSlot] = res.Message
	d.Hash = res.Hash
	d.HasHash = true
	d.Answer = res.Answer
	d.HasAnswer = true
	return nil
}
