package indicator

import (
	"fmt"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// RSI is the Relative Strength Index over a fixed period, smoothed with
// Wilder's method. Requires period+1 bars.
type RSI struct {
	period int
}

// NewRSI creates an RSI indicator. Period must be a positive integer.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be positive, got %d", period)
	}

	return &RSI{period: period}, nil
}

// Kind returns the indicator kind tag.
func (r *RSI) Kind() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Key returns the stable cache identity.
func (r *RSI) Key() string {
	return fmt.Sprintf("rsi(%d)", r.period)
}

// Compute returns the RSI for the full prefix.
func (r *RSI) Compute(bars []types.Bar) Point {
	return last(r.Series(bars))
}

// Series returns the RSI at every index in a single pass.
func (r *RSI) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))

	var avgGain, avgLoss float64

	var sumGain, sumLoss float64

	for i := range bars {
		if i == 0 {
			points[i] = insufficient()

			continue
		}

		change := bars[i].Close - bars[i-1].Close

		switch {
		case i <= r.period:
			// Seed window: plain means of gains and losses.
			if change > 0 {
				sumGain += change
			} else {
				sumLoss += -change
			}

			if i < r.period {
				points[i] = insufficient()

				continue
			}

			avgGain = sumGain / float64(r.period)
			avgLoss = sumLoss / float64(r.period)
		default:
			// Wilder's smoothing: the side without movement decays too.
			if change > 0 {
				avgGain = (avgGain*float64(r.period-1) + change) / float64(r.period)
				avgLoss = (avgLoss * float64(r.period-1)) / float64(r.period)
			} else {
				avgLoss = (avgLoss*float64(r.period-1) + (-change)) / float64(r.period)
				avgGain = (avgGain * float64(r.period-1)) / float64(r.period)
			}
		}

		points[i] = scalar(rsiValue(avgGain, avgLoss))
	}

	return points
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
