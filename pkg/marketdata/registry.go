package marketdata

import (
	"github.com/istin/tradingaizer/pkg/errors"
)

// ProviderInfo describes one supported provider for CLIs and UIs.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderBinance: {
		Name:         string(ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange klines, no authentication required for market data",
		RequiresAuth: false,
	},
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US equities and crypto aggregates, requires an API key",
		RequiresAuth: true,
	},
}

// SupportedProviders lists the registered provider names.
func SupportedProviders() []string {
	names := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		names = append(names, string(providerType))
	}

	return names
}

// GetProviderInfo returns the metadata for a provider name.
func GetProviderInfo(name string) (ProviderInfo, error) {
	info, ok := providerRegistry[ProviderType(name)]
	if !ok {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", name)
	}

	return info, nil
}
