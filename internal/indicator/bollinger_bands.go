package indicator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// BollingerBands computes the upper, middle and lower bands for a fixed
// period and standard deviation multiplier. The middle band is the simple
// moving average; the deviation is the population standard deviation of the
// window. Requires period bars.
type BollingerBands struct {
	period           int
	stdDevMultiplier float64
}

// NewBollingerBands creates a Bollinger Bands indicator. Period must be
// positive and the multiplier non-negative.
func NewBollingerBands(period int, stdDevMultiplier float64) (*BollingerBands, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger period must be positive, got %d", period)
	}

	if stdDevMultiplier < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"bollinger multiplier must be non-negative, got %f", stdDevMultiplier)
	}

	return &BollingerBands{period: period, stdDevMultiplier: stdDevMultiplier}, nil
}

// Kind returns the indicator kind tag.
func (b *BollingerBands) Kind() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Key returns the stable cache identity.
func (b *BollingerBands) Key() string {
	return fmt.Sprintf("bollinger_bands(%d,%s)", b.period, strconv.FormatFloat(b.stdDevMultiplier, 'g', -1, 64))
}

// Compute returns the bands for the full prefix.
func (b *BollingerBands) Compute(bars []types.Bar) Point {
	return last(b.Series(bars))
}

// Series returns the bands at every index in a single pass over windows.
func (b *BollingerBands) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))

	for i := range bars {
		if i < b.period-1 {
			points[i] = insufficient()

			continue
		}

		window := bars[i+1-b.period : i+1]

		var sum float64
		for _, bar := range window {
			sum += bar.Close
		}

		sma := sum / float64(b.period)

		var varianceSum float64

		for _, bar := range window {
			diff := bar.Close - sma
			varianceSum += diff * diff
		}

		stdDev := math.Sqrt(varianceSum / float64(b.period))

		points[i] = Point{
			OK: true,
			Bands: &BandsValue{
				Upper:  sma + b.stdDevMultiplier*stdDev,
				Middle: sma,
				Lower:  sma - b.stdDevMultiplier*stdDev,
			},
		}
	}

	return points
}
