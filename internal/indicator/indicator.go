package indicator

import (
	"github.com/istin/tradingaizer/internal/types"
)

// Indicator is a pure function from an ordered bar history to a derived
// value. Implementations carry their parameters as immutable fields and keep
// no mutable state between calls.
type Indicator interface {
	// Kind returns the indicator kind tag.
	Kind() types.IndicatorType
	// Key returns the stable cache identity derived from kind and
	// parameters. Equal kind and parameters produce equal keys.
	Key() string
	// Compute returns the value for the full prefix passed in.
	// Missing history is reported as Point{OK: false}, never an error.
	Compute(bars []types.Bar) Point
	// Series returns one value per input index in a single pass, such that
	// Series(bars)[i] equals Compute(bars[:i+1]) for every i.
	Series(bars []types.Bar) []Point
}

// MACDValue is the structured MACD result.
//
// The MACD field holds the histogram (raw MACD minus signal line), not the
// raw MACD line. Strategies depend on this pairing under the "macd" name,
// so it is preserved as-is.
type MACDValue struct {
	MACD       float64 `json:"macd"`
	SignalLine float64 `json:"signal_line"`
}

// BandsValue is the structured Bollinger Bands result.
type BandsValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Point is a single computed indicator value. OK is false when the input
// history is shorter than the indicator's minimum length; consumers must
// check it before reading any value field.
type Point struct {
	OK    bool        `json:"ok"`
	Value float64     `json:"value,omitempty"`
	MACD  *MACDValue  `json:"macd,omitempty"`
	Bands *BandsValue `json:"bands,omitempty"`
}

func scalar(v float64) Point {
	return Point{OK: true, Value: v}
}

func insufficient() Point {
	return Point{OK: false}
}

// last returns the final point of a series, or an insufficient-data point
// for an empty input.
func last(points []Point) Point {
	if len(points) == 0 {
		return insufficient()
	}

	return points[len(points)-1]
}
