package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/istin/tradingaizer/internal/backtest"
	"github.com/istin/tradingaizer/internal/chart"
	"github.com/istin/tradingaizer/internal/config"
	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/strategy"
	"github.com/istin/tradingaizer/internal/trader"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/marketdata"
)

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	l, err := logger.NewLogger(logger.WithLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer l.Sync()

	timeframe, err := cfg.ParsedTimeframe()
	if err != nil {
		return err
	}

	source, err := marketdata.NewProvider(marketdata.ProviderType(cfg.Provider), cfg.MarketData)
	if err != nil {
		return err
	}

	l.Info("fetching history",
		zap.String("ticker", cfg.Ticker),
		zap.String("provider", cfg.Provider),
		zap.Time("start", cfg.Start),
		zap.Time("end", cfg.End))

	bars, err := source.FetchBars(ctx, cfg.Ticker, types.TimeframeM1, cfg.Start, cfg.End)
	if err != nil {
		// A partial history is still usable; anything shorter than one
		// aggregate group is not.
		if len(bars) < timeframe.Minutes() {
			return err
		}

		l.Warn("history fetch incomplete, continuing with collected prefix",
			zap.Int("bars", len(bars)),
			zap.Error(err))
	}

	sessionID := fmt.Sprintf("%s-%s-%d-%d",
		cfg.Ticker, timeframe, cfg.Start.Unix(), cfg.End.Unix())

	var chartOpts []chart.ProviderOption
	if cfg.SnapshotDir != "" {
		chartOpts = append(chartOpts, chart.WithSnapshotDir(cfg.SnapshotDir))
	}

	provider := chart.NewProvider(sessionID, bars, l, chartOpts...)

	strat, err := strategy.NewRSIMACDStrategy()
	if err != nil {
		return err
	}

	trd, err := trader.NewTrader(ctx, cfg.Trader, trader.NewPaperExecutor(cfg.InitialBalance), l)
	if err != nil {
		return err
	}

	journal, err := backtest.NewJournal(l)
	if err != nil {
		return err
	}
	defer journal.Close()

	engine, err := backtest.NewEngine(backtest.EngineConfig{
		Ticker:       cfg.Ticker,
		Timeframe:    timeframe,
		ShowProgress: cfg.ShowProgress,
	}, provider, strat, trd, journal, l)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.ReportPath != "" {
		if err := result.WriteReport(cfg.ReportPath); err != nil {
			return err
		}

		l.Info("report written", zap.String("path", cfg.ReportPath))
	}

	fmt.Printf("final balance: %.2f, closed deals: %d, win rate: %.2f%%\n",
		result.FinalBalance, result.ClosedDeals, result.Summary.WinRate)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay historical bars through a strategy and the position manager",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML configuration file",
				Required: true,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
