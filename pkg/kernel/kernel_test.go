package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sergeii/paytv/pkg/kernel"
)

func testTables() *kernel.Tables {
	var t kernel.Tables
	for i := range t.LUT {
		t.LUT[i] = byte(i*7 + 3)
	}
	for i := range t.Secret {
		t.Secret[i] = byte(i*29 + 11)
	}
	return &t
}

func TestKernel_KnownDigest(t *testing.T) {
	k := kernel.New(testTables())
	for v := range byte(5) {
		k.Hash(v)
	}
	assert.Equal(t, byte(0x79), k.XORByte())
	assert.Equal(t, [8]byte{0x6A, 0xC0, 0xDB, 0xFE, 0x65, 0xC5, 0xB5, 0x0C}, k.Digest())
}

func TestKernel_OrderSensitive(t *testing.T) {
	tables := testTables()

	k1 := kernel.New(tables)
	k1.Hash(0x12)
	k1.Hash(0x34)

	k2 := kernel.New(tables)
	k2.Hash(0x34)
	k2.Hash(0x12)

	assert.Equal(t, byte(0x10), k1.XORByte())
	assert.Equal(t, byte(0xB7), k2.XORByte())
	assert.Equal(t, [8]byte{0xF6, 0x18, 0x75, 0x95, 0x37, 0x92, 0xF2, 0x51}, k1.Digest())
	assert.Equal(t, [8]byte{0xD8, 0x98, 0xC3, 0x01, 0x7D, 0xDD, 0x5B, 0x6D}, k2.Digest())
}

func TestKernel_InitResetsState(t *testing.T) {
	k := kernel.New(testTables())
	fresh := k.XORByte()
	k.Hash(0xAA)
	k.Hash(0x55)
	k.Init()
	assert.Equal(t, fresh, k.XORByte())
}

func TestReverseCodeword(t *testing.T) {
	cw := kernel.ReverseCodeword([8]byte{1, 2, 3, 4, 5, 6, 7, 0xF8})
	assert.Equal(t, uint64(0x0807060504030201), cw)
}

func TestSerialMask(t *testing.T) {
	assert.Equal(t, [4]byte{0xCA, 0xF7, 0x51, 0x04}, kernel.SerialMask(0x12, 0x34))
}
