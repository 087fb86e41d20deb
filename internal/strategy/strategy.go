// Package strategy defines the decision policy contract and the reference
// policies shipped with the engine. A strategy reads bar series and
// indicator values from the session chart data and turns them into a
// decision: it holds no position state and issues no orders, that is the
// trader's job.
package strategy

import (
	"github.com/istin/tradingaizer/internal/indicator"
	"github.com/istin/tradingaizer/internal/types"
)

// ChartData is the session market data view a strategy evaluates against.
// Indicator reads go through the session cache, so a replay loop asking for
// one more bar each step never redoes the full series pass.
type ChartData interface {
	// Bars returns the timeframe's completed aggregate bars visible after
	// the first m1Prefix base bars.
	Bars(tf types.Timeframe, m1Prefix int) ([]types.Bar, error)
	// Indicator returns the indicator's cached value at the last completed
	// aggregate bar visible after the first m1Prefix base bars.
	Indicator(ind indicator.Indicator, tf types.Timeframe, m1Prefix int) (indicator.Point, error)
}

// Strategy produces one trading decision per evaluation. Implementations
// must be deterministic over the data they receive and must express
// missing or ambiguous signals as a HOLD decision, never as an error.
type Strategy interface {
	// Name identifies the strategy in logs and journals.
	Name() string

	// GenerateDecision evaluates the history visible after the first
	// m1Prefix base bars and returns the decision together with a
	// human-readable reason and optional dynamic stop-loss and take-profit
	// prices.
	GenerateDecision(data ChartData, tf types.Timeframe, m1Prefix int) types.DecisionReason
}
