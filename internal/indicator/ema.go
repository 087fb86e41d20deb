package indicator

import (
	"fmt"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// EMA is the Exponential Moving Average over a fixed period, seeded with the
// simple mean of the first period closes. Requires period bars.
type EMA struct {
	period int
}

// NewEMA creates an EMA indicator. Period must be a positive integer.
func NewEMA(period int) (*EMA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "ema period must be positive, got %d", period)
	}

	return &EMA{period: period}, nil
}

// Kind returns the indicator kind tag.
func (e *EMA) Kind() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Key returns the stable cache identity.
func (e *EMA) Key() string {
	return fmt.Sprintf("ema(%d)", e.period)
}

// Compute returns the EMA for the full prefix.
func (e *EMA) Compute(bars []types.Bar) Point {
	return last(e.Series(bars))
}

// Series returns the EMA at every index in a single pass.
func (e *EMA) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))
	multiplier := 2.0 / float64(e.period+1)

	var ema, sum float64

	for i, bar := range bars {
		switch {
		case i < e.period-1:
			sum += bar.Close
			points[i] = insufficient()

			continue
		case i == e.period-1:
			sum += bar.Close
			ema = sum / float64(e.period)
		default:
			ema = (bar.Close-ema)*multiplier + ema
		}

		points[i] = scalar(ema)
	}

	return points
}
