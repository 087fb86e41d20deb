package indicator

import (
	"fmt"
	"strconv"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// SuperTrend emits a binary trend flag: +1 when the last close sits above
// the basic lower band (bar midpoint minus multiplier times the Wilder ATR),
// -1 otherwise. This is the simplified signal form without band-flip
// carry-over. Requires atrPeriod+1 bars.
type SuperTrend struct {
	atrPeriod  int
	multiplier float64
}

// NewSuperTrend creates a SuperTrend indicator. The ATR period must be
// positive and the multiplier non-negative.
func NewSuperTrend(atrPeriod int, multiplier float64) (*SuperTrend, error) {
	if atrPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "super trend atr period must be positive, got %d", atrPeriod)
	}

	if multiplier < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"super trend multiplier must be non-negative, got %f", multiplier)
	}

	return &SuperTrend{atrPeriod: atrPeriod, multiplier: multiplier}, nil
}

// Kind returns the indicator kind tag.
func (s *SuperTrend) Kind() types.IndicatorType {
	return types.IndicatorTypeSuperTrend
}

// Key returns the stable cache identity.
func (s *SuperTrend) Key() string {
	return fmt.Sprintf("super_trend(%d,%s)", s.atrPeriod, strconv.FormatFloat(s.multiplier, 'g', -1, 64))
}

// Compute returns the trend flag for the full prefix.
func (s *SuperTrend) Compute(bars []types.Bar) Point {
	return last(s.Series(bars))
}

// Series returns the trend flag at every index in a single pass.
func (s *SuperTrend) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))

	var atr, sumTR float64

	for i := range bars {
		if i == 0 {
			points[i] = insufficient()

			continue
		}

		tr := trueRange(bars[i], bars[i-1])

		switch {
		case i <= s.atrPeriod:
			sumTR += tr

			if i < s.atrPeriod {
				points[i] = insufficient()

				continue
			}

			atr = sumTR / float64(s.atrPeriod)
		default:
			atr = (atr*float64(s.atrPeriod-1) + tr) / float64(s.atrPeriod)
		}

		midpoint := (bars[i].High + bars[i].Low) / 2
		basicLower := midpoint - s.multiplier*atr

		if bars[i].Close > basicLower {
			points[i] = scalar(1)
		} else {
			points[i] = scalar(-1)
		}
	}

	return points
}
