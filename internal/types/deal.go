package types

import (
	"github.com/moznion/go-optional"
)

// Direction is the side of an open position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Deal is a single position lifecycle: opened on a LONG/SHORT decision,
// updated in place while held, finalized exactly once on close. A closed
// deal is never mutated again.
type Deal struct {
	ID        string
	Ticker    string
	Direction Direction
	// OpenedBar is the bar on which the deal was opened.
	OpenedBar Bar
	// ClosedBar is set on the close transition and absent while the deal is open.
	ClosedBar optional.Option[Bar]
	// StopLoss may only move in the position's favor while the deal is held.
	StopLoss float64
	// OpenAmount is the USDT notional committed at open.
	OpenAmount float64
	// ClosedAmount is OpenAmount plus realized profit/loss, set on close.
	ClosedAmount float64
	// Message is the formatted close summary.
	Message string
}

// IsClosed reports whether the deal has been finalized.
func (d *Deal) IsClosed() bool {
	return d.ClosedBar.IsSome()
}

// Profitable reports whether the closed deal realized a gain.
func (d *Deal) Profitable() bool {
	return d.ClosedAmount > d.OpenAmount
}
