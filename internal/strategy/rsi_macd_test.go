package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/istin/tradingaizer/internal/chart"
	"github.com/istin/tradingaizer/internal/indicator"
	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
)

type RSIMACDStrategyTestSuite struct {
	suite.Suite
	strategy *RSIMACDStrategy
}

func TestRSIMACDStrategyTestSuite(t *testing.T) {
	suite.Run(t, new(RSIMACDStrategyTestSuite))
}

func (s *RSIMACDStrategyTestSuite) SetupTest() {
	strategy, err := NewRSIMACDStrategy()
	s.Require().NoError(err)
	s.strategy = strategy
}

func barsFromCloses(closes []float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    10,
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
		}
	}

	return bars
}

func (s *RSIMACDStrategyTestSuite) decide(closes []float64) types.DecisionReason {
	bars := barsFromCloses(closes)
	provider := chart.NewProvider("strategy-test", bars, logger.NewNopLogger())

	return s.strategy.GenerateDecision(provider, types.TimeframeM1, len(bars))
}

// declineWithBounce produces 40 bars falling by 0.5 each and one recovery bar
// 0.3 above the low. RSI(14) is deep in oversold territory while the bounce
// flips the MACD histogram positive.
func declineWithBounce() []float64 {
	closes := make([]float64, 0, 41)
	for i := 0; i < 40; i++ {
		closes = append(closes, 100-0.5*float64(i))
	}

	return append(closes, closes[39]+0.3)
}

func rallyWithPullback() []float64 {
	closes := make([]float64, 0, 41)
	for i := 0; i < 40; i++ {
		closes = append(closes, 100+0.5*float64(i))
	}

	return append(closes, closes[39]-0.3)
}

func (s *RSIMACDStrategyTestSuite) TestName() {
	s.Equal("rsi-macd", s.strategy.Name())
}

func (s *RSIMACDStrategyTestSuite) TestLongOnOversoldBounce() {
	reason := s.decide(declineWithBounce())

	s.Equal(types.DecisionLong, reason.Decision)
	s.Contains(reason.Reason, "RSI")
}

func (s *RSIMACDStrategyTestSuite) TestShortOnOverboughtPullback() {
	reason := s.decide(rallyWithPullback())

	s.Equal(types.DecisionShort, reason.Decision)
	s.Contains(reason.Reason, "RSI")
}

func (s *RSIMACDStrategyTestSuite) TestHoldWhenSignalsDisagree() {
	// A steady mild uptrend keeps RSI overbought with positive momentum,
	// which matches neither entry rule.
	closes := make([]float64, 60)
	closes[0] = 100
	for i := 1; i < 60; i++ {
		closes[i] = closes[i-1] * 1.001
	}

	reason := s.decide(closes)

	s.Equal(types.DecisionHold, reason.Decision)
	s.Equal("no clear signal", reason.Reason)
}

func (s *RSIMACDStrategyTestSuite) TestHoldOnInsufficientData() {
	reason := s.decide([]float64{100, 101, 102})

	s.Equal(types.DecisionHold, reason.Decision)
	s.Equal("no clear signal", reason.Reason)
}

// countingChartData wraps a provider and counts indicator lookups.
type countingChartData struct {
	provider       *chart.Provider
	indicatorReads int
}

func (c *countingChartData) Bars(tf types.Timeframe, m1Prefix int) ([]types.Bar, error) {
	return c.provider.Bars(tf, m1Prefix)
}

func (c *countingChartData) Indicator(ind indicator.Indicator, tf types.Timeframe, m1Prefix int) (indicator.Point, error) {
	c.indicatorReads++

	return c.provider.Indicator(ind, tf, m1Prefix)
}

func (s *RSIMACDStrategyTestSuite) TestReadsIndicatorsFromChartData() {
	bars := barsFromCloses(declineWithBounce())
	data := &countingChartData{
		provider: chart.NewProvider("strategy-test", bars, logger.NewNopLogger()),
	}

	reason := s.strategy.GenerateDecision(data, types.TimeframeM1, len(bars))

	s.Equal(types.DecisionLong, reason.Decision)
	// RSI and MACD both come from the session data, never from a direct
	// recomputation over the raw history.
	s.Equal(2, data.indicatorReads)
}
