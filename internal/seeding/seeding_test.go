package seeding_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/carddata"
	"github.com/sergeii/paytv/internal/modes"
	"github.com/sergeii/paytv/internal/seeding"
	"github.com/sergeii/paytv/internal/validation"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/random"
	"github.com/sergeii/paytv/pkg/signature"
)

// fixedSource always yields the same value
type fixedSource byte

func (f fixedSource) Intn(n int) int {
	return int(f) % n
}

func (f fixedSource) Int31() int32 {
	return int32(f)
}

func loadCardData(t *testing.T) *carddata.Data {
	validate, err := validation.New()
	require.NoError(t, err)
	data, err := carddata.LoadFile("../carddata/testdata/cards.toml", validate)
	require.NoError(t, err)
	return data
}

func mustMode(t *testing.T, gen modes.Generation, name string) modes.Mode {
	m, err := modes.Lookup(gen, name)
	require.NoError(t, err)
	return m
}

func sum(msg blocks.Message) byte {
	var s byte
	for _, b := range msg {
		s += b
	}
	return s
}

func TestP07Generator(t *testing.T) {
	data := loadCardData(t)
	mode := mustMode(t, modes.GenerationA, "sky07")

	gen, err := seeding.New(mode, data, seeding.WithRand(random.NewSource(1)))
	require.NoError(t, err)

	var d blocks.Data
	d.Messages[5][0] = 0xF8
	d.Messages[5][1] = mode.Date
	require.NoError(t, gen.Seed(&d))

	assert.True(t, d.HasAnswer)
	assert.Equal(t, byte(0xF8), d.Messages[5][0])
	assert.Equal(t, byte(0), sum(d.Messages[5]))
	assert.Equal(t, uint64(0), d.Answer>>60)

	key, err := data.Key("sky")
	require.NoError(t, err)
	p, err := kernel.NewP07(key, mode.KeyOffset, mode.Variant, mode.Signature)
	require.NoError(t, err)
	msg := [32]byte(d.Messages[5])
	assert.Equal(t, d.Answer, p.Process(&msg))
	assert.Equal(t, [32]byte(d.Messages[5]), msg)

	// every reseed draws new random bytes
	before := d.Messages[5]
	require.NoError(t, gen.Seed(&d))
	assert.NotEqual(t, before[12:27], d.Messages[5][12:27])
}

func TestP09Generator(t *testing.T) {
	data := loadCardData(t)

	plainGen, err := seeding.New(mustMode(t, modes.GenerationA, "sky09"), data, seeding.WithRand(fixedSource(0x10)))
	require.NoError(t, err)
	nanoGen, err := seeding.New(mustMode(t, modes.GenerationA, "sky09nano"), data, seeding.WithRand(fixedSource(0x10)))
	require.NoError(t, err)

	var plain, nano blocks.Data
	require.NoError(t, plainGen.Seed(&plain))
	require.NoError(t, nanoGen.Seed(&nano))

	key, err := data.Key("sky09")
	require.NoError(t, err)
	p, err := kernel.NewP09(key)
	require.NoError(t, err)

	var msg [32]byte
	for i := 12; i < 27; i++ {
		msg[i] = 0x10
	}
	nanoMsg := msg
	assert.Equal(t, p.Process(&msg), plain.Answer)
	assert.Equal(t, msg, [32]byte(plain.Messages[5]))

	assert.Equal(t, p.ProcessNano(&nanoMsg, kernel.Nano{Offset: 0x10, Count: 0x10}), nano.Answer)
	assert.Equal(t, nanoMsg, [32]byte(nano.Messages[5]))
	assert.NotEqual(t, plain.Answer, nano.Answer)
}

func TestXTEAGenerator(t *testing.T) {
	gen, err := seeding.New(mustMode(t, modes.GenerationA, "xtea"), carddata.Default(), seeding.WithRand(random.NewSource(7)))
	require.NoError(t, err)

	var d blocks.Data
	require.NoError(t, gen.Seed(&d))
	assert.True(t, d.HasAnswer)
	assert.Equal(t, byte(0x63), d.Messages[5][6])

	msg := [32]byte(d.Messages[5])
	assert.Equal(t, d.Answer, kernel.ProcessXTEA(&msg))
}

func TestPPVGenerator(t *testing.T) {
	ppv := kernel.DefaultPPVCard
	gen, err := seeding.New(
		mustMode(t, modes.GenerationA, "ppv"),
		carddata.Default(),
		seeding.WithRand(fixedSource(0x42)),
		seeding.WithPPVCard(&ppv),
	)
	require.NoError(t, err)

	var d blocks.Data
	require.NoError(t, gen.Seed(&d))
	assert.Equal(t, byte(0x42), d.Messages[0][21])
	assert.Equal(t, byte(0x42), d.Messages[0][22])
	msg := [32]byte(d.Messages[0])
	assert.Equal(t, kernel.PPVCodeword(&msg, kernel.DefaultPPVCard), d.Answer)

	// the generator follows key changes made by the caller
	first := d.Answer
	ka, kb := seeding.NextKeys(&ppv)
	assert.Equal(t, byte(0x29), ka)
	assert.Equal(t, byte(0x3D), kb)
	require.NoError(t, gen.Seed(&d))
	assert.NotEqual(t, first, d.Answer)
	assert.Equal(t, kernel.PPVCodeword(&msg, ppv), d.Answer)
}

func TestASICGenerator(t *testing.T) {
	data := loadCardData(t)
	logger := zerolog.Nop()
	resolver, err := signature.New(
		[]signature.Entry{{Hash: 0x707F1C, Signature: 0xDEADBEEF}},
		signature.WithTablePath(filepath.Join(t.TempDir(), "missing.bin")),
	)
	require.NoError(t, err)

	gen, err := seeding.New(
		mustMode(t, modes.GenerationA, "sky10"),
		data,
		seeding.WithRand(fixedSource(0x5A)),
		seeding.WithResolver(resolver),
		seeding.WithLogger(&logger),
		seeding.WithShowECM(true),
	)
	require.NoError(t, err)

	var d blocks.Data
	require.NoError(t, gen.Seed(&d))
	assert.True(t, d.HasHash)
	assert.True(t, d.HasAnswer)
	assert.Equal(t, [4]byte{0x1C, 0x7F, 0x70, 0x13}, d.Hash)
	assert.Equal(t, uint64(0x01213b9dfa254509), d.Answer)
	assert.Equal(t, blocks.Message{
		0xF8, 0x86, 0x03, 0x23, 0x62, 0xCC, 0x22, 0x8F,
		0x30, 0xE7, 0x1D, 0x1B, 0xB8, 0xDF, 0xE7, 0xC2,
		0x42, 0x0A, 0x09, 0x12, 0x4E, 0x54, 0x28, 0x66,
		0x4A, 0xC0, 0xBF, 0xDE, 0xAD, 0xBE, 0xEF, 0x56,
	}, d.Messages[5])
}

func TestASICGenerator_MissKeepsPreviousData(t *testing.T) {
	data := loadCardData(t)
	resolver, err := signature.New(nil, signature.WithTablePath(filepath.Join(t.TempDir(), "missing.bin")))
	require.NoError(t, err)

	gen, err := seeding.New(
		mustMode(t, modes.GenerationA, "sky10ppv"),
		data,
		seeding.WithResolver(resolver),
	)
	require.NoError(t, err)

	d := blocks.Data{Answer: 0x123, HasAnswer: true}
	d.Messages[5][0] = 0xAB
	assert.ErrorIs(t, gen.Seed(&d), signature.ErrNotFound)
	assert.Equal(t, uint64(0x123), d.Answer)
	assert.Equal(t, byte(0xAB), d.Messages[5][0])
	assert.False(t, d.HasHash)
}

func TestNew_Errors(t *testing.T) {
	_, err := seeding.New(mustMode(t, modes.GenerationA, "sky07"), carddata.Default())
	assert.ErrorIs(t, err, carddata.ErrKeyNotFound)

	_, err = seeding.New(mustMode(t, modes.GenerationA, "sky10"), carddata.Default())
	assert.ErrorIs(t, err, seeding.ErrNoResolver)

	resolver, err := signature.New(nil)
	require.NoError(t, err)
	_, err = seeding.New(mustMode(t, modes.GenerationA, "sky10"), carddata.Default(), seeding.WithResolver(resolver))
	assert.ErrorIs(t, err, carddata.ErrNoKernelTables)
}

func TestNew_Static(t *testing.T) {
	gen, err := seeding.New(mustMode(t, modes.GenerationA, "sky11"), carddata.Default())
	require.NoError(t, err)

	d := blocks.Data{Answer: 5}
	require.NoError(t, gen.Seed(&d))
	assert.Equal(t, uint64(5), d.Answer)
}

func TestStatic(t *testing.T) {
	static, err := seeding.New(mustMode(t, modes.GenerationA, "sky12"), carddata.Default())
	require.NoError(t, err)
	assert.True(t, seeding.Static(static))

	dynamic, err := seeding.New(mustMode(t, modes.GenerationA, "xtea"), carddata.Default())
	require.NoError(t, err)
	assert.False(t, seeding.Static(dynamic))
}
