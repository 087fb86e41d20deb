// Package config loads and validates the application configuration from a
// YAML file.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/istin/tradingaizer/internal/trader"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
	"github.com/istin/tradingaizer/pkg/marketdata"
)

// Config is the full application configuration for a backtest or live run.
type Config struct {
	// Ticker is the instrument symbol, venue notation.
	Ticker string `yaml:"ticker" validate:"required"`
	// Timeframe the strategy evaluates on, e.g. "M5".
	Timeframe string `yaml:"timeframe" validate:"required"`
	// Provider selects the market data source.
	Provider string `yaml:"provider" validate:"required,oneof=binance polygon"`
	// Start and End bound the historical range, RFC 3339.
	Start time.Time `yaml:"start" validate:"required"`
	End   time.Time `yaml:"end" validate:"required,gtfield=Start"`

	// InitialBalance seeds the paper venue for backtests.
	InitialBalance float64 `yaml:"initial_balance" validate:"gt=0"`

	// ShowProgress renders a progress bar during replay.
	ShowProgress bool `yaml:"show_progress"`

	// LogLevel is the minimum enabled log level.
	LogLevel string `yaml:"log_level" validate:"required,oneof=debug info warn error"`

	// SnapshotDir enables indicator cache persistence when set.
	SnapshotDir string `yaml:"snapshot_dir"`

	// ReportPath receives the YAML result summary when set.
	ReportPath string `yaml:"report_path"`

	Trader     trader.Config     `yaml:"trader"`
	MarketData marketdata.Config `yaml:"market_data"`
}

// Load reads, parses and validates the configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "read config file", err)
	}

	return Parse(data)
}

// Parse decodes and validates YAML configuration bytes.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parse config", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if _, err := cfg.ParsedTimeframe(); err != nil {
		return Config{}, err
	}

	if err := cfg.Trader.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timeframe == "" {
		c.Timeframe = types.TimeframeM1.String()
	}

	if c.InitialBalance == 0 {
		c.InitialBalance = 1000
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Trader.Ticker == "" {
		c.Trader.Ticker = c.Ticker
	}

	if c.Trader.SettlePollInterval == 0 {
		c.Trader.SettlePollInterval = 100 * time.Millisecond
	}

	if c.Trader.SettleTimeout == 0 {
		c.Trader.SettleTimeout = 5 * time.Second
	}
}

// ParsedTimeframe resolves the timeframe string.
func (c Config) ParsedTimeframe() (types.Timeframe, error) {
	return types.ParseTimeframe(c.Timeframe)
}
