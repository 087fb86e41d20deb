package indicator

import (
	"fmt"
	"math"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// ADX is the Average Directional Index. True range and directional movement
// are smoothed with Wilder's running sums seeded by summation over the first
// period values; the ADX itself is seeded as the mean of DX over the second
// period-sized window and Wilder-smoothed thereafter. Requires 2*period bars.
type ADX struct {
	period int
}

// NewADX creates an ADX indicator. Period must be a positive integer.
func NewADX(period int) (*ADX, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "adx period must be positive, got %d", period)
	}

	return &ADX{period: period}, nil
}

// Kind returns the indicator kind tag.
func (a *ADX) Kind() types.IndicatorType {
	return types.IndicatorTypeADX
}

// Key returns the stable cache identity.
func (a *ADX) Key() string {
	return fmt.Sprintf("adx(%d)", a.period)
}

// Compute returns the ADX for the full prefix.
func (a *ADX) Compute(bars []types.Bar) Point {
	return last(a.Series(bars))
}

// Series returns the ADX at every index in a single pass.
func (a *ADX) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))
	period := a.period

	// Wilder running sums of TR, +DM, -DM.
	var smoothedTR, smoothedPlusDM, smoothedMinusDM float64

	var adx, sumDX float64

	for i := range bars {
		if i == 0 {
			points[i] = insufficient()

			continue
		}

		tr := trueRange(bars[i], bars[i-1])

		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low

		var plusDM, minusDM float64
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}

		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}

		if i <= period {
			smoothedTR += tr
			smoothedPlusDM += plusDM
			smoothedMinusDM += minusDM
		} else {
			smoothedTR = smoothedTR - smoothedTR/float64(period) + tr
			smoothedPlusDM = smoothedPlusDM - smoothedPlusDM/float64(period) + plusDM
			smoothedMinusDM = smoothedMinusDM - smoothedMinusDM/float64(period) + minusDM
		}

		if i < period {
			points[i] = insufficient()

			continue
		}

		var plusDI, minusDI float64
		if smoothedTR != 0 {
			plusDI = smoothedPlusDM / smoothedTR * 100
			minusDI = smoothedMinusDM / smoothedTR * 100
		}

		var dx float64
		if sum := plusDI + minusDI; sum != 0 {
			dx = math.Abs(plusDI-minusDI) / sum * 100
		}

		switch {
		case i < 2*period-1:
			// Second seed window: DX values accumulate toward the first ADX.
			sumDX += dx
			points[i] = insufficient()

			continue
		case i == 2*period-1:
			sumDX += dx
			adx = sumDX / float64(period)
		default:
			adx = (adx*float64(period-1) + dx) / float64(period)
		}

		points[i] = scalar(adx)
	}

	return points
}
