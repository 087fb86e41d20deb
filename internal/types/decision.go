package types

import "github.com/moznion/go-optional"

// Decision is the outcome of one strategy evaluation.
type Decision string

const (
	DecisionLong  Decision = "LONG"
	DecisionShort Decision = "SHORT"
	DecisionHold  Decision = "HOLD"
	DecisionClose Decision = "CLOSE"
)

// DecisionReason carries a decision together with the human readable
// explanation the strategy produced, plus optional risk overrides.
type DecisionReason struct {
	Decision Decision
	// Reason explains the decision for logs and deal messages.
	Reason string
	// DynamicStopLoss overrides the default stop-loss price when set.
	DynamicStopLoss optional.Option[float64]
	// TakeProfit closes the position when the price touches this level
	// in the favorable direction.
	TakeProfit optional.Option[float64]
}

// Hold is a convenience constructor for the no-action decision.
func Hold(reason string) DecisionReason {
	return DecisionReason{Decision: DecisionHold, Reason: reason}
}
