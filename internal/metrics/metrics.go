package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	mutex     sync.Mutex
	registry  *prometheus.Registry
	observers []Observer

	EncoderFrames         prometheus.Counter
	EncoderLinesScrambled prometheus.Counter
	EncoderVBILines       *prometheus.CounterVec
	EncoderDurations      prometheus.Histogram

	SeedReseeds  *prometheus.CounterVec
	SeedFailures *prometheus.CounterVec

	SignatureLookups      *prometheus.CounterVec
	SignatureTableLoaded  prometheus.Gauge
	SignatureTableRecords prometheus.Gauge

	SessionFrame prometheus.Gauge
	SessionBlock *prometheus.GaugeVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	c := &Collector{
		registry: registry,

		EncoderFrames: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "encoder_frames_total",
			Help: "The total number of rendered frames",
		}),
		EncoderLinesScrambled: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "encoder_lines_scrambled_total",
			Help: "The total number of active lines passed through the line scrambler",
		}),
		EncoderVBILines: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "encoder_vbi_lines_total",
			Help: "The total number of lines carrying VBI data",
		}, []string{"generation"}),
		EncoderDurations: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "encoder_frame_duration_seconds",
			Help:    "Duration of frame rendering",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .02, .04, .1},
		}),
		SeedReseeds: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "seed_reseeds_total",
			Help: "The total number of control messages regenerated at block rotation",
		}, []string{"generation"}),
		SeedFailures: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "seed_failures_total",
			Help: "The total number of control messages that could not be regenerated",
		}, []string{"generation"}),
		SignatureLookups: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "signature_lookups_total",
			Help: "The total number of signature lookups",
		}, []string{"tier", "result"}),
		SignatureTableLoaded: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "signature_table_loaded",
			Help: "Whether the external signature table has been loaded",
		}),
		SignatureTableRecords: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "signature_table_records",
			Help: "The number of non-empty records in the external signature table",
		}),
		SessionFrame: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "session_frame",
			Help: "The frame counter of the encoder session",
		}),
		SessionBlock: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "session_block",
			Help: "The index of the block currently on air",
		}, []string{"generation"}),
	}
	return c
}

func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) AddObserver(observer Observer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.observers = append(c.observers, observer)
}

func (c *Collector) Observe(ctx context.Context) {
	c.mutex.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mutex.Unlock()
	for _, observer := range observers {
		go observer.Observe(ctx, c)
	}
}

// ObserveLookup counts a signature lookup attempt
func (c *Collector) ObserveLookup(tier string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	c.SignatureLookups.WithLabelValues(tier, result).Inc()
}

// ObserveTableLoad records the outcome of the external signature table load
func (c *Collector) ObserveTableLoad(ok bool, records int) {
	if ok {
		c.SignatureTableLoaded.Set(1)
	} else {
		c.SignatureTableLoaded.Set(0)
	}
	c.SignatureTableRecords.Set(float64(records))
}
