package indicator

import (
	"fmt"
	"math"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// ATR is the Average True Range over a fixed period, smoothed with Wilder's
// method. Requires period+1 bars.
type ATR struct {
	period int
}

// NewATR creates an ATR indicator. Period must be a positive integer.
func NewATR(period int) (*ATR, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "atr period must be positive, got %d", period)
	}

	return &ATR{period: period}, nil
}

// Kind returns the indicator kind tag.
func (a *ATR) Kind() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Key returns the stable cache identity.
func (a *ATR) Key() string {
	return fmt.Sprintf("atr(%d)", a.period)
}

// Compute returns the ATR for the full prefix.
func (a *ATR) Compute(bars []types.Bar) Point {
	return last(a.Series(bars))
}

// Series returns the ATR at every index in a single pass.
func (a *ATR) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))

	var atr, sumTR float64

	for i := range bars {
		if i == 0 {
			points[i] = insufficient()

			continue
		}

		tr := trueRange(bars[i], bars[i-1])

		switch {
		case i <= a.period:
			sumTR += tr

			if i < a.period {
				points[i] = insufficient()

				continue
			}

			atr = sumTR / float64(a.period)
		default:
			atr = (atr*float64(a.period-1) + tr) / float64(a.period)
		}

		points[i] = scalar(atr)
	}

	return points
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(current, previous types.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}
