package blocks

import (
	"errors"

	"github.com/sergeii/paytv/pkg/binutils"
	"github.com/sergeii/paytv/pkg/kernel"
)

const Slots = 8

var ErrReadOnly = errors.New("block storage is read-only")

// Message is a single 32 byte packet. The last byte is the checksum.
type Message [kernel.MessageLen]byte

// Seal recalculates the checksum byte
func (m *Message) Seal() {
	m[kernel.MessageLen-1] = binutils.Checksum(m[:])
}

func (m *Message) Valid() bool {
	var sum byte
	for _, b := range m {
		sum += b
	}
	return sum == 0
}

// Data is the content of a block: eight message slots and the answer
// a card produces for the block's control message.
type Data struct {
	Messages [Slots]Message
	Hash     [4]byte
	Answer   uint64

	HasHash   bool
	HasAnswer bool
}

// Storage is where a block keeps its data.
// It is either a Template shared between sessions or an Owned private copy.
type Storage interface {
	data() *Data
}

// Template is read-only data shared between blocks
type Template struct {
	d *Data
}

func NewTemplate(d *Data) Template {
	return Template{d: d}
}

func (t Template) data() *Data {
	return t.d
}

// Owned is a private copy of block data that seeding is allowed to modify
type Owned struct {
	d Data
}

func (o *Owned) data() *Data {
	return &o.d
}

func (o *Owned) Mutable() *Data {
	return &o.d
}

type Block struct {
	Mode    byte
	Current Message
	storage Storage
}

// NewBlock creates a block backed by tpl.
// Blocks that are written to get a private copy, the rest share the template.
func NewBlock(mode byte, tpl *Data, writable bool) *Block {
	b := &Block{Mode: mode}
	if writable {
		b.storage = &Owned{d: *tpl}
	} else {
		b.storage = NewTemplate(tpl)
	}
	return b
}

// Owned returns the private storage of the block, if it has one
func (b *Block) Owned() (*Owned, bool) {
	o, ok := b.storage.(*Owned)
	return o, ok
}

func (b *Block) Mutable() (*Data, error) {
	o, ok := b.Owned()
	if !ok {
		return nil, ErrReadOnly
	}
	return o.Mutable(), nil
}

func (b *Block) Slot(i int) Message {
	return b.storage.data().Messages[i]
}

func (b *Block) Answer() uint64 {
	return b.storage.data().Answer
}

func (b *Block) Hash() ([4]byte, bool) {
	d := b.storage.data()
	return d.Hash, d.HasHash
}

// Refresh makes the slot the currently transmitted message
func (b *Block) Refresh(slot int) {
	b.Current = b.storage.data().Messages[slot]
	b.Current.Seal()
}

// Release drops the private copy of the block data
func (b *Block) Release() {
	if _, ok := b.storage.(*Owned); ok {
		b.storage = &Owned{}
	}
}
