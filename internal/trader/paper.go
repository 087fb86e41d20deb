package trader

import (
	"context"
	"sync"

	"github.com/moznion/go-optional"

	"github.com/istin/tradingaizer/internal/types"
)

// PaperExecutor is an in-memory venue for backtests and dry runs. It fills
// every order instantly and owns the balance bookkeeping: realized P&L is
// applied to the balance inside CloseDeal, so the trader reads back the
// settled balance the same way it would from a real venue.
type PaperExecutor struct {
	mu      sync.Mutex
	balance float64
	deals   map[string]types.Deal
}

// NewPaperExecutor creates a paper venue with the given starting balance.
func NewPaperExecutor(initialBalance float64) *PaperExecutor {
	return &PaperExecutor{
		balance: initialBalance,
		deals:   make(map[string]types.Deal),
	}
}

func (e *PaperExecutor) GetBalance(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.balance, nil
}

func (e *PaperExecutor) SubmitDeal(ctx context.Context, deal *types.Deal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.deals[deal.Ticker] = *deal

	return nil
}

func (e *PaperExecutor) CloseDeal(ctx context.Context, deal *types.Deal, closePrice float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := deal.OpenedBar.Price()
	delta := (closePrice - entry) / entry
	if deal.Direction == types.DirectionShort {
		delta = -delta
	}

	e.balance += deal.OpenAmount * delta
	delete(e.deals, deal.Ticker)

	return nil
}

func (e *PaperExecutor) CurrentDeal(ctx context.Context, ticker string) (optional.Option[types.Deal], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deal, ok := e.deals[ticker]
	if !ok {
		return optional.None[types.Deal](), nil
	}

	return optional.Some(deal), nil
}

func (e *PaperExecutor) UpdateStopLoss(ctx context.Context, deal *types.Deal, newStop float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stored, ok := e.deals[deal.Ticker]
	if !ok {
		return nil
	}

	stored.StopLoss = newStop
	e.deals[deal.Ticker] = stored

	return nil
}
