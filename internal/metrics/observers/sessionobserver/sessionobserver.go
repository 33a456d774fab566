package sessionobserver

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/encoder"
	"github.com/sergeii/paytv/internal/metrics"
	"github.com/sergeii/paytv/internal/modes"
)

type SessionSource interface {
	Current() (encoder.Info, bool)
}

type SessionObserver struct {
	sessions SessionSource
	logger   *zerolog.Logger
}

func New(
	collector *metrics.Collector,
	sessions SessionSource,
	logger *zerolog.Logger,
) SessionObserver {
	observer := SessionObserver{
		sessions: sessions,
		logger:   logger,
	}
	collector.AddObserver(&observer)
	return observer
}

func (o SessionObserver) Observe(_ context.Context, m *metrics.Collector) {
	info, ok := o.sessions.Current()
	if !ok {
		o.logger.Debug().Msg("No session to observe")
		return
	}
	m.SessionFrame.Set(float64(info.Frame))
	if info.BlockA >= 0 {
		m.SessionBlock.WithLabelValues(modes.GenerationA.String()).Set(float64(info.BlockA))
	}
	if info.BlockB >= 0 {
		m.SessionBlock.WithLabelValues(modes.GenerationB.String()).Set(float64(info.BlockB))
	}
	o.logger.Debug().
		Uint64("frame", info.Frame).Int("blockA", info.BlockA).Int("blockB", info.BlockB).
		Msg("Observed session")
}
