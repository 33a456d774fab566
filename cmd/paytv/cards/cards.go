package cards

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sergeii/paytv/internal/carddata"
	"github.com/sergeii/paytv/internal/metrics"
	"github.com/sergeii/paytv/pkg/signature"
)

type Config struct {
	CardDataPath       string
	SignatureTablePath string
}

func Provide(cfg Config, validate *validator.Validate, logger *zerolog.Logger) (*carddata.Data, error) {
	if cfg.CardDataPath == "" {
		logger.Warn().Msg("No card data provided, only free access modes will be available")
		return carddata.Default(), nil
	}
	data, err := carddata.LoadFile(cfg.CardDataPath, validate)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.CardDataPath).Msg("Failed to load card data")
		return nil, err
	}
	logger.Info().Str("path", cfg.CardDataPath).Msg("Loaded card data")
	return data, nil
}

// ProvideResolver creates the signature resolver shared by all sessions of the process
func ProvideResolver(
	cfg Config,
	data *carddata.Data,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) (*signature.Resolver, error) {
	return signature.New(
		data.Signatures(),
		signature.WithTablePath(cfg.SignatureTablePath),
		signature.WithLogger(logger),
		signature.WithLookupHook(func(tier signature.Tier, found bool) {
			collector.ObserveLookup(string(tier), found)
		}),
		signature.WithLoadHook(collector.ObserveTableLoad),
	)
}
