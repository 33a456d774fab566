package api

import (
	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/encoder"
)

// SessionSource provides the session currently on air, if any
type SessionSource interface {
	Current() (encoder.Info, bool)
}

type API struct {
	sessions SessionSource
	logger   *zerolog.Logger
}

func New(
	sessions SessionSource,
	logger *zerolog.Logger,
) *API {
	return &API{
		sessions: sessions,
		logger:   logger,
	}
}
