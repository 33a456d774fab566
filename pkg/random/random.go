package random

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is the subset of *math/rand.Rand the message generators draw from
type Source interface {
	Intn(n int) int
	Int31() int32
}

// NewSource creates a pseudo random source.
// A zero seed is replaced with a random one.
func NewSource(seed int64) *mrand.Rand {
	if seed == 0 {
		seed = RandSeed()
	}
	return mrand.New(mrand.NewSource(seed)) // nolint: gosec
}

func RandSeed() int64 {
	return int64(binary.LittleEndian.Uint64(RandBytes(8)) >> 1)
}

func RandByte(src Source) byte {
	return byte(src.Intn(256))
}

// FillBytes replaces buf with random bytes
func FillBytes(src Source, buf []byte) {
	for i := range buf {
		buf[i] = RandByte(src)
	}
}

func RandBytes(sz int) []byte {
	data := make([]byte, sz)
	if _, err := crand.Read(data); err != nil {
		panic(err)
	}
	return data
}
