package card_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/paytv/internal/card"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/signature"
)

var plain = []byte{
	0xF8, 0x86, 0x03, 0x23, 0x62, 0x40, 0x00, 0x98,
	0xFE, 0xFE, 0x5A, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00,
}

func testTables() *kernel.Tables {
	tables := &kernel.Tables{}
	for i := range tables.LUT {
		tables.LUT[i] = byte(i*7 + 3)
	}
	for i := range tables.Secret {
		tables.Secret[i] = byte(i*29 + 11)
	}
	return tables
}

func newCard(t *testing.T, embedded []signature.Entry) *card.Card {
	logger := zerolog.Nop()
	resolver, err := signature.New(
		embedded,
		signature.WithTablePath(filepath.Join(t.TempDir(), "missing.bin")),
		signature.WithLogger(&logger),
	)
	require.NoError(t, err)
	return card.New(testTables(), resolver, &logger)
}

func TestEncrypt(t *testing.T) {
	tests := []struct {
		name       string
		plain      []byte
		signature  uint32
		wantHash   [4]byte
		wantMsg    [32]byte
		wantAnswer uint64
	}{
		{
			"control message",
			plain,
			0xDEADBEEF,
			[4]byte{0x1C, 0x7F, 0x70, 0x13},
			[32]byte{
				0xF8, 0x86, 0x03, 0x23, 0x62, 0xCC, 0x22, 0x8F,
				0x30, 0xE7, 0x1D, 0x1B, 0xB8, 0xDF, 0xE7, 0xC2,
				0x42, 0x0A, 0x09, 0x12, 0x4E, 0x54, 0x28, 0x66,
				0x4A, 0xC0, 0xBF, 0xDE, 0xAD, 0xBE, 0xEF, 0x56,
			},
			0x01213b9dfa254509,
		},
		{
			"different random byte",
			withByte(plain, 10, 0xA5),
			0x01020304,
			[4]byte{0xEB, 0xE1, 0xE5, 0xEF},
			[32]byte{
				0xF8, 0x86, 0x03, 0x23, 0x62, 0xCC, 0x22, 0x8F,
				0x30, 0xE7, 0xE2, 0xBF, 0xE3, 0x83, 0x0D, 0x33,
				0x1B, 0x03, 0xED, 0x61, 0xB3, 0x12, 0x19, 0x17,
				0x45, 0xC5, 0x4A, 0x01, 0x02, 0x03, 0x04, 0x60,
			},
			0x07929bb30370a026,
		},
		{
			"pay per view purchase",
			[]byte{
				0xF8, 0x86, 0x9C, 0xF0, 0x42, 0x40, 0x00, 0x98,
				0xFE, 0xFE, 0x5A, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00,
			},
			0xCAFEF00D,
			[4]byte{0x84, 0xC4, 0x12, 0x52},
			[32]byte{
				0xF8, 0x86, 0x9C, 0xF0, 0x42, 0xCC, 0xAA, 0xE5,
				0xAF, 0xA0, 0x16, 0x93, 0x28, 0xE7, 0x0F, 0x1A,
				0xE5, 0x92, 0x18, 0x8C, 0x07, 0x01, 0x20, 0x68,
				0x4F, 0xBD, 0x20, 0xCA, 0xFE, 0xF0, 0x0D, 0x8D,
			},
			0x085fb9f6d183ac75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := uint32(tt.wantHash[2])<<16 | uint32(tt.wantHash[1])<<8 | uint32(tt.wantHash[0])
			c := newCard(t, []signature.Entry{{Hash: hash, Signature: tt.signature}})

			res, err := c.Encrypt(tt.plain)
			require.NoError(t, err)

			assert.Equal(t, tt.wantHash, res.Hash)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Equal(t, tt.wantAnswer, res.Answer)

			var sum byte
			for _, b := range res.Message {
				sum += b
			}
			assert.Equal(t, byte(0), sum)
		})
	}
}

func withByte(b []byte, idx int, v byte) []byte {
	out := append([]byte(nil), b...)
	out[idx] = v
	return out
}

func TestEncrypt_IsRepeatable(t *testing.T) {
	c := newCard(t, []signature.Entry{{Hash: 0x707F1C, Signature: 0xDEADBEEF}})

	first, err := c.Encrypt(plain)
	require.NoError(t, err)
	second, err := c.Encrypt(plain)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncrypt_PlaintextMatters(t *testing.T) {
	c := newCard(t, nil)

	other := append([]byte(nil), plain...)
	other[10] = 0xA5

	first, err := c.Encrypt(plain)
	require.ErrorIs(t, err, signature.ErrNotFound)
	second, err := c.Encrypt(other)
	require.ErrorIs(t, err, signature.ErrNotFound)

	assert.Equal(t, first.Message[:10], second.Message[:10])
	assert.NotEqual(t, first.Message[10:27], second.Message[10:27])
}

func TestEncrypt_NoSignature(t *testing.T) {
	c := newCard(t, []signature.Entry{{Hash: 0x707F1C, Signature: 0}})

	res, err := c.Encrypt(plain)
	assert.ErrorIs(t, err, signature.ErrNotFound)
	assert.Equal(t, uint64(0), res.Answer)
	assert.Equal(t, [4]byte{0x1C, 0x7F, 0x70, 0x13}, res.Hash)
}

func TestEncrypt_Length(t *testing.T) {
	tests := []struct {
		name string
		len  int
		ok   bool
	}{
		{"too short", 4, false},
		{"shortest", 5, true},
		{"longest", 27, true},
		{"too long", 28, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCard(t, nil)
			_, err := c.Encrypt(make([]byte, tt.len))
			if tt.ok {
				// no signature is known for the zero message, but the length is accepted
				assert.ErrorIs(t, err, signature.ErrNotFound)
			} else {
				assert.ErrorIs(t, err, card.ErrInvalidLength)
			}
		})
	}
}
