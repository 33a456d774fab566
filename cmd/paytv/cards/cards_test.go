package cards_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/paytv/cmd/paytv/cards"
	"github.com/sergeii/paytv/internal/metrics"
	"github.com/sergeii/paytv/internal/validation"
)

func TestProvide_NoPath(t *testing.T) {
	validate, err := validation.New()
	require.NoError(t, err)
	logger := zerolog.Nop()

	data, err := cards.Provide(cards.Config{}, validate, &logger)
	require.NoError(t, err)
	_, err = data.KernelTables()
	assert.Error(t, err)
	assert.Empty(t, data.Signatures())
}

func TestProvide_File(t *testing.T) {
	validate, err := validation.New()
	require.NoError(t, err)
	logger := zerolog.Nop()

	data, err := cards.Provide(
		cards.Config{CardDataPath: "../../../internal/carddata/testdata/cards.toml"},
		validate,
		&logger,
	)
	require.NoError(t, err)
	_, err = data.KernelTables()
	assert.NoError(t, err)
	assert.NotEmpty(t, data.Signatures())
}

func TestProvide_InvalidFile(t *testing.T) {
	validate, err := validation.New()
	require.NoError(t, err)
	logger := zerolog.Nop()

	path := filepath.Join(t.TempDir(), "cards.toml")
	require.NoError(t, os.WriteFile(path, []byte("[keys\nsky07 = "), 0o600))

	_, err = cards.Provide(cards.Config{CardDataPath: path}, validate, &logger)
	assert.Error(t, err)
}

func TestProvideResolver_ReportsMisses(t *testing.T) {
	validate, err := validation.New()
	require.NoError(t, err)
	logger := zerolog.Nop()
	collector := metrics.New()

	data, err := cards.Provide(cards.Config{}, validate, &logger)
	require.NoError(t, err)

	cfg := cards.Config{SignatureTablePath: filepath.Join(t.TempDir(), "missing.bin")}
	resolver, err := cards.ProvideResolver(cfg, data, collector, &logger)
	require.NoError(t, err)

	_, err = resolver.Resolve(0xDEADBEEF)
	assert.Error(t, err)
	assert.False(t, resolver.Loaded())
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.SignatureLookups.WithLabelValues("embedded", "miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.SignatureTableLoaded))
}
