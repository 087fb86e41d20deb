package trader

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
)

// faultyExecutor wraps the paper venue and fails selected calls.
type faultyExecutor struct {
	*PaperExecutor
	failSubmit bool
	failClose  bool
	failStop   bool
}

type venueDown struct{}

func (venueDown) Error() string { return "venue down" }

func (e *faultyExecutor) SubmitDeal(ctx context.Context, deal *types.Deal) error {
	if e.failSubmit {
		return venueDown{}
	}

	return e.PaperExecutor.SubmitDeal(ctx, deal)
}

func (e *faultyExecutor) CloseDeal(ctx context.Context, deal *types.Deal, closePrice float64) error {
	if e.failClose {
		return venueDown{}
	}

	return e.PaperExecutor.CloseDeal(ctx, deal, closePrice)
}

func (e *faultyExecutor) UpdateStopLoss(ctx context.Context, deal *types.Deal, newStop float64) error {
	if e.failStop {
		return venueDown{}
	}

	return e.PaperExecutor.UpdateStopLoss(ctx, deal, newStop)
}

type TraderTestSuite struct {
	suite.Suite
	ctx   context.Context
	paper *PaperExecutor
}

func TestTraderTestSuite(t *testing.T) {
	suite.Run(t, new(TraderTestSuite))
}

func (s *TraderTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.paper = NewPaperExecutor(1000)
}

func testConfig() Config {
	return Config{
		Ticker:             "BTCUSDT",
		RiskFraction:       0.1,
		MaxLossFraction:    0.01,
		MinProfitFraction:  0.04,
		SettlePollInterval: time.Millisecond,
		SettleTimeout:      100 * time.Millisecond,
	}
}

func (s *TraderTestSuite) newTrader(executor DealExecutor) *Trader {
	t, err := NewTrader(s.ctx, testConfig(), executor, logger.NewNopLogger())
	s.Require().NoError(err)

	return t
}

func barAt(price float64, minute int) types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return types.Bar{
		OpenTime:  start.Add(time.Duration(minute) * time.Minute),
		Open:      price,
		High:      price + 0.5,
		Low:       price - 0.5,
		Close:     price,
		Volume:    10,
		CloseTime: start.Add(time.Duration(minute+1) * time.Minute),
	}
}

func long(reason string) types.DecisionReason {
	return types.DecisionReason{Decision: types.DecisionLong, Reason: reason}
}

func short(reason string) types.DecisionReason {
	return types.DecisionReason{Decision: types.DecisionShort, Reason: reason}
}

func (s *TraderTestSuite) TestConfigValidation() {
	cfg := testConfig()
	cfg.RiskFraction = 0
	s.Error(cfg.Validate())

	cfg = testConfig()
	cfg.SettleTimeout = cfg.SettlePollInterval / 2
	s.Error(cfg.Validate())

	s.NoError(testConfig().Validate())
}

func (s *TraderTestSuite) TestLongOpenCloseScenario() {
	trader := s.newTrader(s.paper)

	// Open at 100: a tenth of the balance committed, stop one percent down.
	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))

	deal := trader.CurrentDeal()
	s.Require().True(deal.IsSome())
	s.InDelta(100.0, deal.Unwrap().OpenAmount, 1e-9)
	s.InDelta(99.0, deal.Unwrap().StopLoss, 1e-9)

	// Favorable bar: hold and ratchet the stop to the half-distance trail.
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(104, 1))

	deal = trader.CurrentDeal()
	s.Require().True(deal.IsSome())
	s.GreaterOrEqual(deal.Unwrap().StopLoss, 103.48)

	// Profit over the committed notional crosses the minimum: close.
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(104.5, 2))

	s.True(trader.CurrentDeal().IsNone())
	s.Require().Len(trader.ClosedDeals(), 1)

	closed := trader.ClosedDeals()[0]
	s.True(closed.Profitable())
	s.InDelta(104.5, closed.ClosedAmount, 1e-9)
	s.Contains(closed.Message, "Take-profit reached")
	s.InDelta(1004.5, trader.Balance(), 1e-9)
}

func (s *TraderTestSuite) TestStopLossNeverLoosens() {
	trader := s.newTrader(s.paper)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(104, 1))

	ratcheted := trader.CurrentDeal().Unwrap().StopLoss
	s.InDelta(103.48, ratcheted, 1e-9)

	// A weaker favorable bar must not pull the stop back down.
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(103.6, 2))

	s.Equal(ratcheted, trader.CurrentDeal().Unwrap().StopLoss)
}

func (s *TraderTestSuite) TestStopLossBreachCloses() {
	trader := s.newTrader(s.paper)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(98.9, 1))

	s.True(trader.CurrentDeal().IsNone())
	s.Require().Len(trader.ClosedDeals(), 1)

	closed := trader.ClosedDeals()[0]
	s.False(closed.Profitable())
	s.InDelta(98.9, closed.ClosedAmount, 1e-9)
	s.Contains(closed.Message, "Stop loss triggered")
	s.InDelta(998.9, trader.Balance(), 1e-9)
}

func (s *TraderTestSuite) TestExplicitTakeProfitTouched() {
	trader := s.newTrader(s.paper)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))

	hold := types.Hold("no clear signal")
	hold.TakeProfit = optional.Some(101.0)
	trader.OnDecision(s.ctx, hold, barAt(101.2, 1))

	s.Require().Len(trader.ClosedDeals(), 1)
	s.Contains(trader.ClosedDeals()[0].Message, "Take-profit reached")
}

func (s *TraderTestSuite) TestCloseDecision() {
	trader := s.newTrader(s.paper)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))
	trader.OnDecision(s.ctx,
		types.DecisionReason{Decision: types.DecisionClose, Reason: "session end"},
		barAt(100.5, 1))

	s.Require().Len(trader.ClosedDeals(), 1)
	s.Contains(trader.ClosedDeals()[0].Message, "Close decision received: session end")
}

func (s *TraderTestSuite) TestOppositeSignalClosesWithoutReentry() {
	trader := s.newTrader(s.paper)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))
	trader.OnDecision(s.ctx, short("momentum flipped"), barAt(100.5, 1))

	// The opposite signal closes the long; the short direction waits for
	// the next decision.
	s.True(trader.CurrentDeal().IsNone())
	s.Require().Len(trader.ClosedDeals(), 1)
	s.Contains(trader.ClosedDeals()[0].Message, "Opposite signal: momentum flipped")

	trader.OnDecision(s.ctx, short("momentum flipped"), barAt(100.4, 2))

	deal := trader.CurrentDeal()
	s.Require().True(deal.IsSome())
	s.Equal(types.DirectionShort, deal.Unwrap().Direction)
}

func (s *TraderTestSuite) TestShortSideRiskRules() {
	trader := s.newTrader(s.paper)

	trader.OnDecision(s.ctx, short("entry"), barAt(100, 0))

	deal := trader.CurrentDeal()
	s.Require().True(deal.IsSome())
	s.InDelta(101.0, deal.Unwrap().StopLoss, 1e-9)

	// Favorable move down ratchets the stop down, never up.
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(96, 1))
	s.InDelta(96.48, trader.CurrentDeal().Unwrap().StopLoss, 1e-9)

	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(95.5, 2))

	s.Require().Len(trader.ClosedDeals(), 1)
	s.True(trader.ClosedDeals()[0].Profitable())
	s.InDelta(1004.5, trader.Balance(), 1e-9)
}

func (s *TraderTestSuite) TestDynamicStopLossWins() {
	trader := s.newTrader(s.paper)

	entry := long("entry")
	entry.DynamicStopLoss = optional.Some(97.5)
	trader.OnDecision(s.ctx, entry, barAt(100, 0))

	s.InDelta(97.5, trader.CurrentDeal().Unwrap().StopLoss, 1e-9)
}

func (s *TraderTestSuite) TestSubmitFailureStaysFlat() {
	executor := &faultyExecutor{PaperExecutor: s.paper, failSubmit: true}
	trader := s.newTrader(executor)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))

	s.True(trader.CurrentDeal().IsNone())
	s.Empty(trader.ClosedDeals())
	s.InDelta(1000.0, trader.Balance(), 1e-9)
}

func (s *TraderTestSuite) TestCloseFailureFinalizesLocally() {
	executor := &faultyExecutor{PaperExecutor: s.paper}
	trader := s.newTrader(executor)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))

	executor.failClose = true
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(98.9, 1))

	s.True(trader.CurrentDeal().IsNone())
	s.Require().Len(trader.ClosedDeals(), 1)
	s.Contains(trader.ClosedDeals()[0].Message, "VenueError")
	s.InDelta(98.9, trader.ClosedDeals()[0].ClosedAmount, 1e-9)
}

func (s *TraderTestSuite) TestStopUpdateFailureKeepsLocalStop() {
	executor := &faultyExecutor{PaperExecutor: s.paper}
	trader := s.newTrader(executor)

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))

	executor.failStop = true
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(104, 1))

	// The tighter stop survives locally even though the venue rejected it.
	s.InDelta(103.48, trader.CurrentDeal().Unwrap().StopLoss, 1e-9)
}

func (s *TraderTestSuite) TestResumesExistingDeal() {
	existing := &types.Deal{
		ID:         "resumed",
		Ticker:     "BTCUSDT",
		Direction:  types.DirectionLong,
		OpenedBar:  barAt(100, 0),
		StopLoss:   99,
		OpenAmount: 100,
	}
	s.Require().NoError(s.paper.SubmitDeal(s.ctx, existing))

	trader := s.newTrader(s.paper)

	deal := trader.CurrentDeal()
	s.Require().True(deal.IsSome())
	s.Equal("resumed", deal.Unwrap().ID)
}

func (s *TraderTestSuite) TestWinRate() {
	trader := s.newTrader(s.paper)

	s.Equal(Summary{}, trader.WinRate())

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 0))
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(104.5, 1))

	trader.OnDecision(s.ctx, long("entry"), barAt(100, 2))
	trader.OnDecision(s.ctx, types.Hold("no clear signal"), barAt(98.9, 3))

	summary := trader.WinRate()
	s.Equal(1, summary.Wins)
	s.Equal(1, summary.Losses)
	s.InDelta(50.0, summary.WinRate, 1e-9)
	s.Greater(summary.SumProfit, 0.0)
	s.Less(summary.SumLoss, 0.0)
}
