package encoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/paytv/internal/encoder"
	"github.com/sergeii/paytv/internal/settings"
)

func TestRegistry(t *testing.T) {
	r := encoder.NewRegistry()
	_, ok := r.Current()
	assert.False(t, ok)

	first, err := encoder.New(newConfig("free", "", settings.Settings{}))
	require.NoError(t, err)
	second, err := encoder.New(newConfig("", "free", settings.Settings{}))
	require.NoError(t, err)

	r.Set(first)
	info, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, first.ID(), info.ID)
	assert.Equal(t, "free", info.ModeA)
	assert.Equal(t, "", info.ModeB)
	assert.Equal(t, -1, info.BlockB)

	r.Set(second)
	r.Clear(first)
	info, ok = r.Current()
	require.True(t, ok)
	assert.Equal(t, second.ID(), info.ID)

	r.Clear(second)
	_, ok = r.Current()
	assert.False(t, ok)
}
