package indicator

import (
	"github.com/istin/tradingaizer/internal/types"
)

// OBV is On-Balance Volume: a cumulative sum starting at zero that adds the
// bar volume when the close rose, subtracts it when the close fell, and is
// unchanged on an equal close. Requires 2 bars.
type OBV struct{}

// NewOBV creates an OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

// Kind returns the indicator kind tag.
func (o *OBV) Kind() types.IndicatorType {
	return types.IndicatorTypeOBV
}

// Key returns the stable cache identity.
func (o *OBV) Key() string {
	return "obv"
}

// Compute returns the OBV for the full prefix.
func (o *OBV) Compute(bars []types.Bar) Point {
	return last(o.Series(bars))
}

// Series returns the OBV at every index in a single pass.
func (o *OBV) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))

	var obv float64

	for i := range bars {
		if i == 0 {
			points[i] = insufficient()

			continue
		}

		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Volume
		}

		points[i] = scalar(obv)
	}

	return points
}
