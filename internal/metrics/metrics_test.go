package metrics_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/paytv/internal/metrics"
)

type countingObserver struct {
	wg    *sync.WaitGroup
	calls int
}

func (o *countingObserver) Observe(_ context.Context, m *metrics.Collector) {
	defer o.wg.Done()
	o.calls++
	m.SessionFrame.Set(42)
}

func TestCollector_ObserveLookup(t *testing.T) {
	c := metrics.New()

	c.ObserveLookup("embedded", true)
	c.ObserveLookup("embedded", false)
	c.ObserveLookup("external", false)
	c.ObserveLookup("external", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.SignatureLookups.WithLabelValues("embedded", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SignatureLookups.WithLabelValues("embedded", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.SignatureLookups.WithLabelValues("external", "miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.SignatureLookups.WithLabelValues("external", "hit")))
}

func TestCollector_ObserveTableLoad(t *testing.T) {
	c := metrics.New()

	c.ObserveTableLoad(true, 1234)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SignatureTableLoaded))
	assert.Equal(t, 1234.0, testutil.ToFloat64(c.SignatureTableRecords))

	c.ObserveTableLoad(false, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.SignatureTableLoaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.SignatureTableRecords))
}

func TestCollector_Observers(t *testing.T) {
	c := metrics.New()
	wg := &sync.WaitGroup{}
	o := &countingObserver{wg: wg}
	c.AddObserver(o)

	wg.Add(1)
	c.Observe(context.TODO())
	wg.Wait()

	assert.Equal(t, 1, o.calls)
	assert.Equal(t, 42.0, testutil.ToFloat64(c.SessionFrame))
}

func TestCollector_Registry(t *testing.T) {
	c := metrics.New()
	c.EncoderFrames.Add(3)
	c.EncoderVBILines.WithLabelValues("A").Add(8)

	families, err := c.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["encoder_frames_total"])
	assert.True(t, names["encoder_vbi_lines_total"])
	assert.True(t, names["process_cpu_seconds_total"] || names["go_goroutines"])
}
