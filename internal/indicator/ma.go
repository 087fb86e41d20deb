package indicator

import (
	"fmt"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// MA is the simple moving average of the last period closes.
// Requires period bars.
type MA struct {
	period int
}

// NewMA creates a simple moving average indicator. Period must be a positive integer.
func NewMA(period int) (*MA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "ma period must be positive, got %d", period)
	}

	return &MA{period: period}, nil
}

// Kind returns the indicator kind tag.
func (m *MA) Kind() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Key returns the stable cache identity.
func (m *MA) Key() string {
	return fmt.Sprintf("ma(%d)", m.period)
}

// Compute returns the moving average for the full prefix.
func (m *MA) Compute(bars []types.Bar) Point {
	return last(m.Series(bars))
}

// Series returns the moving average at every index in a single pass.
func (m *MA) Series(bars []types.Bar) []Point {
	points := make([]Point, len(bars))

	var sum float64

	for i, bar := range bars {
		sum += bar.Close

		if i >= m.period {
			sum -= bars[i-m.period].Close
		}

		if i < m.period-1 {
			points[i] = insufficient()

			continue
		}

		points[i] = scalar(sum / float64(m.period))
	}

	return points
}
