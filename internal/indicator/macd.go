package indicator

import (
	"fmt"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// MACD is the Moving Average Convergence Divergence indicator. The fast and
// slow EMA recurrences run in lock-step from index 0; the first macd value
// corresponds to index slowPeriod-1 and seeds the signal line directly.
// Requires slowPeriod bars.
//
// See MACDValue for the histogram naming caveat.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a MACD indicator. All periods must be positive and
// fastPeriod must be smaller than slowPeriod.
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) (*MACD, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"macd periods must be positive, got (%d,%d,%d)", fastPeriod, slowPeriod, signalPeriod)
	}

	if fastPeriod >= slowPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"macd fast period %d must be smaller than slow period %d", fastPeriod, slowPeriod)
	}

	return &MACD{fastPeriod: fastPeriod, slowPeriod: slowPeriod, signalPeriod: signalPeriod}, nil
}

// Kind returns the indicator kind tag.
func (m *MACD) Kind() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Key returns the stable cache identity.
func (m *MACD) Key() string {
	return fmt.Sprintf("macd(%d,%d,%d)", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// Compute returns the MACD value for the full prefix.
func (m *MACD) Compute(bars []types.Bar) Point {
	return last(m.Series(bars))
}

// Series returns the MACD value at every index in a single pass.
func (m *MACD) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))
	fastMultiplier := 2.0 / float64(m.fastPeriod+1)
	slowMultiplier := 2.0 / float64(m.slowPeriod+1)
	signalMultiplier := 2.0 / float64(m.signalPeriod+1)

	var fastEMA, slowEMA, signal float64

	var fastSum, slowSum float64

	for i, bar := range bars {
		if i < m.fastPeriod {
			fastSum += bar.Close
			if i == m.fastPeriod-1 {
				fastEMA = fastSum / float64(m.fastPeriod)
			}
		} else {
			fastEMA = (bar.Close-fastEMA)*fastMultiplier + fastEMA
		}

		if i < m.slowPeriod {
			slowSum += bar.Close

			if i < m.slowPeriod-1 {
				points[i] = insufficient()

				continue
			}

			slowEMA = slowSum / float64(m.slowPeriod)
			// First macd value seeds the signal line.
			signal = fastEMA - slowEMA
		} else {
			slowEMA = (bar.Close-slowEMA)*slowMultiplier + slowEMA
			macd := fastEMA - slowEMA
			signal = (macd-signal)*signalMultiplier + signal
		}

		macd := fastEMA - slowEMA
		points[i] = Point{
			OK: true,
			MACD: &MACDValue{
				MACD:       macd - signal,
				SignalLine: signal,
			},
		}
	}

	return points
}
