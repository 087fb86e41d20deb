// Package marketdata fetches historical OHLCV bars from external venues.
// Providers return plain bar slices ordered by open time; everything
// downstream (aggregation, indicators, replay) is venue-agnostic.
package marketdata

import (
	"context"
	"time"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// ProviderType names a supported market data source.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
	ProviderPolygon ProviderType = "polygon"
)

// Provider downloads historical bars for one symbol and time range.
//
// A mid-download parse failure aborts the fetch loop but keeps what was
// already collected: implementations return the collected prefix together
// with the error, and the caller decides whether a shorter history is
// acceptable.
type Provider interface {
	Name() ProviderType
	FetchBars(ctx context.Context, symbol string, tf types.Timeframe, start, end time.Time) ([]types.Bar, error)
}

// Config carries provider credentials; unused fields may stay empty.
type Config struct {
	// PolygonAPIKey authenticates against Polygon.io.
	PolygonAPIKey string `yaml:"polygon_api_key"`
}

// NewProvider builds a provider by type.
func NewProvider(providerType ProviderType, cfg Config) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceProvider(), nil
	case ProviderPolygon:
		if cfg.PolygonAPIKey == "" {
			return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires an API key")
		}

		return NewPolygonProvider(cfg.PolygonAPIKey), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
