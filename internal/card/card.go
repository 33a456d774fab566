package card

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/pkg/asic"
	"github.com/sergeii/paytv/pkg/binutils"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/logutils"
	"github.com/sergeii/paytv/pkg/signature"
)

const (
	MinPlainLen = 5
	MaxPlainLen = kernel.SignedLen
)

var ErrInvalidLength = errors.New("plaintext length out of range")

// Result is an encrypted control message together with the answer
// a genuine card computes for it
type Result struct {
	Message [kernel.MessageLen]byte
	Hash    [4]byte
	Answer  uint64
}

// Card emulates a series 10 card: the ASIC and the kernel are private to the card,
// the signature resolver may be shared
type Card struct {
	asic     *asic.ASIC
	kernel   *kernel.Kernel
	resolver *signature.Resolver
	logger   *zerolog.Logger
}

func New(tables *kernel.Tables, resolver *signature.Resolver, logger *zerolog.Logger) *Card {
	c := &Card{
		asic:     asic.New(logger),
		kernel:   kernel.New(tables),
		resolver: resolver,
		logger:   logger,
	}
	c.Reset()
	return c
}

func (c *Card) Reset() {
	c.asic.Reset()
	c.kernel.Init()
}

// Encrypt turns a plaintext control message into the message a card
// would accept and returns the answer the card produces for it
func (c *Card) Encrypt(plain []byte) (Result, error) {
	var res Result
	if len(plain) < MinPlainLen || len(plain) > MaxPlainLen {
		return res, fmt.Errorf("%w: %d", ErrInvalidLength, len(plain))
	}

	var msg [kernel.MessageLen]byte
	copy(msg[:], plain)

	c.asic.Reset()
	c.asic.Send(asic.CmdIterations, 0x01)
	c.asic.Send(
		asic.CmdLoad96, 0xA5,
		asic.CmdLoad64, 0x12,
		asic.CmdLoad72, 0x34,
		asic.CmdLoad80, 0x56,
		asic.CmdLoad88, 0x78,
	)
	c.asic.Send(asic.CmdFlags, asic.FlagCapture)

	for i := range 3 {
		c.asic.SendFromDecoder(msg[i])
		c.asic.Send(asic.CmdPush, msg[i])
	}
	c.asic.SendFromDecoder(msg[3])
	c.asic.Send(asic.CmdFlags, asic.FlagClear|asic.FlagCrypto|asic.FlagCapture)

	c.kernel.Init()
	for _, b := range msg[:MinPlainLen] {
		c.kernel.Hash(b)
	}

	copy(res.Message[:MinPlainLen], msg[:MinPlainLen])
	for i := MinPlainLen; i < kernel.SignedLen; i++ {
		c.asic.SendFromDecoder(res.Message[i-1])
		c.asic.Send(asic.CmdRead)
		rx := c.receive()
		res.Message[i] = msg[i] ^ (c.kernel.XORByte() + rx)
		c.kernel.Hash(msg[i])
	}
	c.asic.SendFromDecoder(res.Message[kernel.SignedLen-1])

	digest := c.kernel.Digest()
	for _, b := range digest[:4] {
		c.asic.Send(asic.CmdPush, b)
	}
	var out [4]byte
	for i := range out {
		c.asic.Send(asic.CmdRead)
		out[i] = c.receive()
		c.asic.Send(asic.CmdPush, digest[4+i])
	}
	res.Hash = [4]byte{
		out[0] ^ out[1],
		out[0] ^ out[2],
		out[1] ^ out[3],
		out[2] ^ out[3],
	}

	hash := uint32(res.Hash[2])<<16 | uint32(res.Hash[1])<<8 | uint32(res.Hash[0])
	sig, err := c.resolver.Resolve(hash)
	if err != nil {
		c.logger.Error().
			Str("hash", logutils.HexBytes(res.Hash[:])).
			Msg("No signature found for hash")
		return res, fmt.Errorf("resolve %06X: %w", hash, err)
	}
	copy(res.Message[kernel.SignedLen:], sig[:])
	res.Message[kernel.MessageLen-1] = binutils.Checksum(res.Message[:])

	var answer [8]byte
	for i := range answer {
		c.asic.Send(asic.CmdRead)
		answer[i] = c.receive()
	}
	for i := range 7 {
		answer[i] = ^answer[i]
	}
	answer[7] &= 0x7F
	res.Answer = kernel.ReverseCodeword(answer)

	return res, nil
}

func (c *Card) receive() byte {
	// a failed read has already been reported by the asic, zero is what the card sees
	rx, _ := c.asic.Receive()
	return rx
}
