// Package trader implements the position manager: a three-state machine
// (no position, open long, open short) that turns strategy decisions into
// venue orders under fixed risk rules. It owns at most one Deal per ticker
// and is the only component that talks to the execution venue.
package trader

import (
	"context"

	"github.com/moznion/go-optional"

	"github.com/istin/tradingaizer/internal/types"
)

// DealExecutor is the execution venue surface the trader depends on. All
// calls may fail; the trader logs failures and applies the divergence policy
// documented on each transition rather than retrying.
type DealExecutor interface {
	// GetBalance returns the account balance in USDT.
	GetBalance(ctx context.Context) (float64, error)

	// SubmitDeal places the opening order for the deal.
	SubmitDeal(ctx context.Context, deal *types.Deal) error

	// CloseDeal closes the position behind the deal at the given price.
	CloseDeal(ctx context.Context, deal *types.Deal, closePrice float64) error

	// CurrentDeal returns the venue's view of the open deal for the ticker,
	// or None when the venue holds no position.
	CurrentDeal(ctx context.Context, ticker string) (optional.Option[types.Deal], error)

	// UpdateStopLoss replaces the protective stop order for the deal.
	UpdateStopLoss(ctx context.Context, deal *types.Deal, newStop float64) error
}
