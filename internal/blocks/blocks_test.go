package blocks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/paytv/internal/blocks"
)

func template() *blocks.Data {
	d := &blocks.Data{Answer: 0x0123456789ABCDEF, HasAnswer: true}
	for i := range d.Messages {
		for j := range d.Messages[i] {
			d.Messages[i][j] = byte(i*32 + j)
		}
	}
	return d
}

func TestMessage_Seal(t *testing.T) {
	var m blocks.Message
	for i := range m {
		m[i] = byte(i * 7)
	}
	assert.False(t, m.Valid())
	m.Seal()
	assert.True(t, m.Valid())

	var sum byte
	for _, b := range m {
		sum += b
	}
	assert.Equal(t, byte(0), sum)
}

func TestBlock_Refresh(t *testing.T) {
	tpl := template()
	b := blocks.NewBlock(0x20, tpl, false)

	b.Refresh(3)
	assert.True(t, b.Current.Valid())
	assert.Equal(t, tpl.Messages[3][:31], b.Current[:31])
	assert.Equal(t, uint64(0x0123456789ABCDEF), b.Answer())
	// template slots are not touched by sealing
	assert.Equal(t, byte(3*32+31), tpl.Messages[3][31])
}

func TestBlock_TemplateIsShared(t *testing.T) {
	tpl := template()
	b1 := blocks.NewBlock(0, tpl, false)
	b2 := blocks.NewBlock(0, tpl, false)

	_, ok := b1.Owned()
	assert.False(t, ok)
	_, err := b2.Mutable()
	assert.ErrorIs(t, err, blocks.ErrReadOnly)

	tpl.Answer = 42
	assert.Equal(t, uint64(42), b1.Answer())
	assert.Equal(t, uint64(42), b2.Answer())
}

func TestBlock_OwnedIsPrivate(t *testing.T) {
	tpl := template()
	b1 := blocks.NewBlock(0, tpl, true)
	b2 := blocks.NewBlock(0, tpl, true)

	d, err := b1.Mutable()
	require.NoError(t, err)
	d.Messages[5][1] = 0xAA
	d.Answer = 7

	assert.Equal(t, byte(0xAA), b1.Slot(5)[1])
	assert.Equal(t, uint64(7), b1.Answer())
	assert.Equal(t, byte(5*32+1), b2.Slot(5)[1])
	assert.Equal(t, byte(5*32+1), tpl.Messages[5][1])
	assert.Equal(t, uint64(0x0123456789ABCDEF), b2.Answer())
}

func TestBlock_Release(t *testing.T) {
	b := blocks.NewBlock(0, template(), true)
	b.Release()
	assert.Equal(t, uint64(0), b.Answer())
	assert.Equal(t, blocks.Message{}, b.Slot(0))
}
