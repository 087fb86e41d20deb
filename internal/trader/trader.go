package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// Config holds the risk parameters of one trader instance.
type Config struct {
	// Ticker is the instrument this trader manages.
	Ticker string `yaml:"ticker" validate:"required"`
	// RiskFraction of the balance committed to each new deal.
	RiskFraction float64 `yaml:"risk_fraction" validate:"gt=0,lte=1"`
	// MaxLossFraction places the initial stop at price*(1-maxLoss) for
	// longs and price*(1+maxLoss) for shorts.
	MaxLossFraction float64 `yaml:"max_loss_fraction" validate:"gt=0,lt=1"`
	// MinProfitFraction closes the deal once P&L over the committed
	// notional exceeds this fraction.
	MinProfitFraction float64 `yaml:"min_profit_fraction" validate:"gt=0"`
	// SettlePollInterval is how often the venue is polled for the
	// confirmed position after an order submission.
	SettlePollInterval time.Duration `yaml:"settle_poll_interval" validate:"gt=0"`
	// SettleTimeout bounds the total settle wait.
	SettleTimeout time.Duration `yaml:"settle_timeout" validate:"gt=0"`
}

// Validate checks the config against its constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid trader config", err)
	}

	if c.SettleTimeout < c.SettlePollInterval {
		return errors.New(errors.ErrCodeInvalidConfiguration,
			"settle timeout must not be shorter than the poll interval")
	}

	return nil
}

// Summary aggregates the outcome of all closed deals.
type Summary struct {
	Wins      int     `json:"wins" yaml:"wins"`
	Losses    int     `json:"losses" yaml:"losses"`
	WinRate   float64 `json:"win_rate" yaml:"win_rate"`
	SumProfit float64 `json:"sum_profit" yaml:"sum_profit"`
	SumLoss   float64 `json:"sum_loss" yaml:"sum_loss"`
}

// Trader applies decisions to at most one open deal. Venue call failures
// are logged and resolved by a fixed divergence policy: a failed submit
// rolls the open back, a failed stop update keeps the tighter local stop,
// and a failed close still finalizes the deal locally.
type Trader struct {
	cfg      Config
	executor DealExecutor
	logger   *logger.Logger

	balance   float64
	current   *types.Deal
	closed    []types.Deal
	sumProfit float64
	sumLoss   float64
}

// NewTrader builds a trader over the venue. The initial state is read from
// the venue, not assumed empty, so a restarted process resumes an open
// position with its risk tracking intact.
func NewTrader(ctx context.Context, cfg Config, executor DealExecutor, l *logger.Logger) (*Trader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	balance, err := executor.GetBalance(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVenueCallFailed, "query initial balance", err)
	}

	existing, err := executor.CurrentDeal(ctx, cfg.Ticker)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVenueCallFailed, "query existing deal", err)
	}

	t := &Trader{
		cfg:      cfg,
		executor: executor,
		logger:   l,
		balance:  balance,
	}

	if existing.IsSome() {
		deal := existing.Unwrap()
		t.current = &deal
		t.logger.Info("existing deal resumed",
			zap.String("ticker", deal.Ticker),
			zap.String("direction", string(deal.Direction)),
			zap.Float64("entry", deal.OpenedBar.Price()),
			zap.Float64("notional", deal.OpenAmount),
			zap.Float64("stop_loss", deal.StopLoss))
	}

	return t, nil
}

// Balance returns the last venue-confirmed balance.
func (t *Trader) Balance() float64 {
	return t.balance
}

// CurrentDeal returns the open deal, if any.
func (t *Trader) CurrentDeal() optional.Option[types.Deal] {
	if t.current == nil {
		return optional.None[types.Deal]()
	}

	return optional.Some(*t.current)
}

// ClosedDeals returns the finalized deals in close order.
func (t *Trader) ClosedDeals() []types.Deal {
	return t.closed
}

// OnDecision advances the state machine with one decision against the
// latest bar. Venue failures never panic and never propagate: the outcome
// for the caller is always a consistent local state plus log records.
func (t *Trader) OnDecision(ctx context.Context, reason types.DecisionReason, bar types.Bar) {
	if t.current == nil {
		if reason.Decision == types.DecisionLong || reason.Decision == types.DecisionShort {
			t.open(ctx, reason, bar)
		}

		return
	}

	price := bar.Price()
	profitLoss := t.profitLoss(price)

	switch {
	case t.stopLossBreached(price):
		t.close(ctx, bar, "Stop loss triggered")
	case t.takeProfitReached(price, profitLoss, reason):
		t.close(ctx, bar, "Take-profit reached")
	case reason.Decision == types.DecisionClose:
		t.close(ctx, bar, "Close decision received: "+reason.Reason)
	case t.oppositeSignal(reason.Decision):
		// No re-entry on the same bar: the new direction gets its chance on
		// the next decision, which keeps every bar a single transition.
		t.close(ctx, bar, "Opposite signal: "+reason.Reason)
	default:
		t.ratchetStopLoss(ctx, price, profitLoss)
	}
}

func (t *Trader) open(ctx context.Context, reason types.DecisionReason, bar types.Bar) {
	price := bar.Price()
	direction := types.DirectionLong
	if reason.Decision == types.DecisionShort {
		direction = types.DirectionShort
	}

	deal := &types.Deal{
		ID:         uuid.NewString(),
		Ticker:     t.cfg.Ticker,
		Direction:  direction,
		OpenedBar:  bar,
		StopLoss:   t.initialStopLoss(reason, price, direction),
		OpenAmount: t.balance * t.cfg.RiskFraction,
	}

	if err := t.executor.SubmitDeal(ctx, deal); err != nil {
		// Divergence policy: nothing was confirmed at the venue, so the
		// safe local state is no position at all.
		t.logger.Error("deal submit failed, staying flat",
			zap.String("ticker", deal.Ticker),
			zap.String("direction", string(direction)),
			zap.Error(err))

		return
	}

	t.logger.Info("new deal opened",
		zap.String("ticker", deal.Ticker),
		zap.String("direction", string(direction)),
		zap.Float64("entry", price),
		zap.Float64("notional", deal.OpenAmount),
		zap.Float64("stop_loss", deal.StopLoss),
		zap.String("reason", reason.Reason))

	confirmed, err := t.awaitSettle(ctx, deal)
	if err != nil {
		t.logger.Warn("venue did not confirm deal in time, keeping local view",
			zap.String("ticker", deal.Ticker),
			zap.Error(err))
	} else {
		confirmed.StopLoss = deal.StopLoss
		deal = &confirmed
	}

	if err := t.executor.UpdateStopLoss(ctx, deal, deal.StopLoss); err != nil {
		t.logger.Error("initial stop-loss push failed, keeping local stop",
			zap.String("ticker", deal.Ticker),
			zap.Float64("stop_loss", deal.StopLoss),
			zap.Error(err))
	}

	t.current = deal
}

// awaitSettle polls the venue until it reports the open deal or the timeout
// elapses. The venue's record wins over the local intent when both exist.
func (t *Trader) awaitSettle(ctx context.Context, deal *types.Deal) (types.Deal, error) {
	deadline := time.NewTimer(t.cfg.SettleTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(t.cfg.SettlePollInterval)
	defer ticker.Stop()

	for {
		current, err := t.executor.CurrentDeal(ctx, deal.Ticker)
		if err != nil {
			t.logger.Warn("settle poll failed", zap.Error(err))
		} else if current.IsSome() {
			return current.Unwrap(), nil
		}

		select {
		case <-ctx.Done():
			return types.Deal{}, errors.Wrap(errors.ErrCodeSettleTimeout, "settle wait cancelled", ctx.Err())
		case <-deadline.C:
			return types.Deal{}, errors.Newf(errors.ErrCodeSettleTimeout,
				"venue did not report deal within %s", t.cfg.SettleTimeout)
		case <-ticker.C:
		}
	}
}

func (t *Trader) initialStopLoss(reason types.DecisionReason, price float64, direction types.Direction) float64 {
	if reason.DynamicStopLoss.IsSome() {
		return reason.DynamicStopLoss.Unwrap()
	}

	if direction == types.DirectionLong {
		return price * (1 - t.cfg.MaxLossFraction)
	}

	return price * (1 + t.cfg.MaxLossFraction)
}

func (t *Trader) profitLoss(price float64) float64 {
	entry := t.current.OpenedBar.Price()
	delta := (price - entry) / entry
	if t.current.Direction == types.DirectionShort {
		delta = -delta
	}

	return t.current.OpenAmount * delta
}

func (t *Trader) stopLossBreached(price float64) bool {
	if t.current.Direction == types.DirectionLong {
		return price <= t.current.StopLoss
	}

	return price >= t.current.StopLoss
}

// takeProfitReached holds once the return on the committed notional exceeds
// the configured minimum, or once an explicit take-profit price from the
// strategy has been touched in the favorable direction.
func (t *Trader) takeProfitReached(price, profitLoss float64, reason types.DecisionReason) bool {
	if profitLoss/t.current.OpenAmount > t.cfg.MinProfitFraction {
		return true
	}

	if reason.TakeProfit.IsNone() {
		return false
	}

	target := reason.TakeProfit.Unwrap()
	if t.current.Direction == types.DirectionLong {
		return price >= target
	}

	return price <= target
}

func (t *Trader) oppositeSignal(decision types.Decision) bool {
	return (t.current.Direction == types.DirectionLong && decision == types.DecisionShort) ||
		(t.current.Direction == types.DirectionShort && decision == types.DecisionLong)
}

// ratchetStopLoss tightens the stop with a half-distance trail while the
// position is favorable. The stop only ever moves in the position's favor.
func (t *Trader) ratchetStopLoss(ctx context.Context, price, profitLoss float64) {
	if profitLoss <= 0 {
		return
	}

	var newStop float64
	if t.current.Direction == types.DirectionLong {
		newStop = max(t.current.StopLoss, price*(1-t.cfg.MaxLossFraction/2))
	} else {
		newStop = min(t.current.StopLoss, price*(1+t.cfg.MaxLossFraction/2))
	}

	if newStop == t.current.StopLoss {
		return
	}

	t.current.StopLoss = newStop

	if err := t.executor.UpdateStopLoss(ctx, t.current, newStop); err != nil {
		// The local stop stays tighter than the venue's; the next breach
		// check uses the local value, so risk never widens silently.
		t.logger.Error("stop-loss update failed, keeping local stop",
			zap.String("ticker", t.current.Ticker),
			zap.Float64("stop_loss", newStop),
			zap.Error(err))

		return
	}

	t.logger.Info("stop loss ratcheted",
		zap.String("ticker", t.current.Ticker),
		zap.Float64("stop_loss", newStop),
		zap.Float64("price", price))
}

func (t *Trader) close(ctx context.Context, bar types.Bar, reason string) {
	price := bar.Price()
	profitLoss := t.profitLoss(price)
	oldBalance := t.balance

	deal := t.current
	deal.ClosedAmount = deal.OpenAmount + profitLoss
	deal.ClosedBar = optional.Some(bar)

	venueNote := ""
	if err := t.executor.CloseDeal(ctx, deal, price); err != nil {
		// Divergence policy: the deal is finalized locally either way; the
		// venue error is preserved on the record for reconciliation.
		venueNote = fmt.Sprintf(" VenueError: %v.", err)
		t.logger.Error("venue close failed, finalizing locally",
			zap.String("ticker", deal.Ticker),
			zap.Error(err))
	}

	if balance, err := t.executor.GetBalance(ctx); err != nil {
		t.balance = oldBalance + profitLoss
		t.logger.Error("balance refresh failed, applying local P&L",
			zap.Float64("balance", t.balance),
			zap.Error(err))
	} else {
		t.balance = balance
	}

	realized := t.balance - oldBalance
	if realized > 0 {
		t.sumProfit += realized
	} else {
		t.sumLoss += realized
	}

	duration := int64(bar.When().Sub(deal.OpenedBar.When()) / time.Minute)
	deal.Message = fmt.Sprintf(
		"[DEAL] Deal closed. Reason: %s. ApproxPL: %.2f. OldBalance: %.2f -> NewBalance: %.2f. Duration: %d min.%s",
		reason, realized, oldBalance, t.balance, duration, venueNote)

	t.logger.Info("deal closed",
		zap.String("ticker", deal.Ticker),
		zap.String("direction", string(deal.Direction)),
		zap.String("message", deal.Message))

	t.closed = append(t.closed, *deal)
	t.current = nil
}

// WinRate summarizes all closed deals. An empty history yields a zero
// summary rather than an error.
func (t *Trader) WinRate() Summary {
	summary := Summary{
		SumProfit: t.sumProfit,
		SumLoss:   t.sumLoss,
	}

	for _, deal := range t.closed {
		if deal.Profitable() {
			summary.Wins++
		} else {
			summary.Losses++
		}
	}

	if total := summary.Wins + summary.Losses; total > 0 {
		summary.WinRate = float64(summary.Wins) / float64(total) * 100
	}

	return summary
}
