package backtest

import (
	"context"
	"os"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/istin/tradingaizer/internal/chart"
	"github.com/istin/tradingaizer/internal/indicator"
	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/strategy"
	"github.com/istin/tradingaizer/internal/trader"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// EngineConfig selects what one replay run evaluates.
type EngineConfig struct {
	// Ticker names the instrument under test.
	Ticker string `yaml:"ticker" validate:"required"`
	// Timeframe is the aggregate resolution the strategy sees.
	Timeframe types.Timeframe `yaml:"timeframe"`
	// ShowProgress renders a terminal progress bar during the run.
	ShowProgress bool `yaml:"show_progress"`
}

// Engine replays M1 history bar by bar: the strategy evaluates each prefix
// against the session chart data, and the decision is applied to the trader
// against the latest base bar. The run is strictly sequential and
// deterministic.
type Engine struct {
	cfg      EngineConfig
	provider *chart.Provider
	strategy strategy.Strategy
	trader   *trader.Trader
	journal  *Journal
	logger   *logger.Logger

	// Journaled alongside each decision for offline analysis.
	rsi  *indicator.RSI
	macd *indicator.MACD
}

// Result summarizes one finished replay.
type Result struct {
	Ticker       string                 `yaml:"ticker"`
	Strategy     string                 `yaml:"strategy"`
	Bars         int                    `yaml:"bars"`
	FinalBalance float64                `yaml:"final_balance"`
	Summary      trader.Summary         `yaml:"summary"`
	Decisions    map[types.Decision]int `yaml:"decisions"`
	ClosedDeals  int                    `yaml:"closed_deals"`
}

// NewEngine wires a replay over the given session provider, strategy and
// trader.
func NewEngine(
	cfg EngineConfig,
	provider *chart.Provider,
	strat strategy.Strategy,
	trd *trader.Trader,
	journal *Journal,
	l *logger.Logger,
) (*Engine, error) {
	rsi, err := indicator.NewRSI(14)
	if err != nil {
		return nil, err
	}

	macd, err := indicator.NewMACD(12, 26, 9)
	if err != nil {
		return nil, err
	}

	if cfg.Timeframe == 0 {
		cfg.Timeframe = types.TimeframeM1
	}

	return &Engine{
		cfg:      cfg,
		provider: provider,
		strategy: strat,
		trader:   trd,
		journal:  journal,
		logger:   l,
		rsi:      rsi,
		macd:     macd,
	}, nil
}

// Run replays the full history and returns the aggregated result.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	total := e.provider.Len()

	e.logger.Info("backtest started",
		zap.String("ticker", e.cfg.Ticker),
		zap.String("strategy", e.strategy.Name()),
		zap.String("timeframe", e.cfg.Timeframe.String()),
		zap.Int("bars", total))

	var bar *progressbar.ProgressBar
	if e.cfg.ShowProgress {
		bar = progressbar.Default(int64(total))
	}

	for i := 1; i <= total; i++ {
		select {
		case <-ctx.Done():
			return Result{}, errors.Wrap(errors.ErrCodeUnknown, "backtest cancelled", ctx.Err())
		default:
		}

		if err := e.step(ctx, i); err != nil {
			return Result{}, err
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	for _, deal := range e.trader.ClosedDeals() {
		if err := e.journal.RecordDeal(deal); err != nil {
			return Result{}, err
		}
	}

	return e.result()
}

func (e *Engine) step(ctx context.Context, prefix int) error {
	reason := e.strategy.GenerateDecision(e.provider, e.cfg.Timeframe, prefix)
	latest := e.provider.Base()[prefix-1]
	e.trader.OnDecision(ctx, reason, latest)

	rsiPoint, err := e.provider.Indicator(e.rsi, e.cfg.Timeframe, prefix)
	if err != nil {
		return err
	}

	macdPoint, err := e.provider.Indicator(e.macd, e.cfg.Timeframe, prefix)
	if err != nil {
		return err
	}

	return e.journal.RecordDecision(DecisionRecord{
		BarIndex:      prefix - 1,
		Timestamp:     latest.When(),
		Decision:      reason.Decision,
		Reason:        reason.Reason,
		Price:         latest.Price(),
		RSI:           scalarValue(rsiPoint),
		MACDHistogram: macdValue(macdPoint),
	})
}

func (e *Engine) result() (Result, error) {
	counts, err := e.journal.DecisionCount()
	if err != nil {
		return Result{}, err
	}

	deals, err := e.journal.DealCount()
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Ticker:       e.cfg.Ticker,
		Strategy:     e.strategy.Name(),
		Bars:         e.provider.Len(),
		FinalBalance: e.trader.Balance(),
		Summary:      e.trader.WinRate(),
		Decisions:    counts,
		ClosedDeals:  deals,
	}

	e.logger.Info("backtest finished",
		zap.String("ticker", result.Ticker),
		zap.Float64("final_balance", result.FinalBalance),
		zap.Int("closed_deals", result.ClosedDeals),
		zap.Float64("win_rate", result.Summary.WinRate))

	return result, nil
}

func scalarValue(point indicator.Point) optional.Option[float64] {
	if !point.OK {
		return optional.None[float64]()
	}

	return optional.Some(point.Value)
}

func macdValue(point indicator.Point) optional.Option[float64] {
	if !point.OK || point.MACD == nil {
		return optional.None[float64]()
	}

	return optional.Some(point.MACD.MACD)
}

// WriteReport writes the result as YAML.
func (r Result) WriteReport(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "encode report", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "write report", err)
	}

	return nil
}
