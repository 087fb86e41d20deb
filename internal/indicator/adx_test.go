package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ADXTestSuite struct {
	suite.Suite
}

func TestADXSuite(t *testing.T) {
	suite.Run(t, new(ADXTestSuite))
}

// Every bar moving up with no downward movement keeps -DM at zero, DX at
// 100, and therefore ADX at 100.
func (suite *ADXTestSuite) TestOneWayTrendPegsAt100() {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	adx, err := NewADX(14)
	suite.Require().NoError(err)

	series := adx.Series(barsFromCloses(closes...))

	for i, point := range series {
		if i < 27 {
			suite.False(point.OK, "index %d", i)

			continue
		}

		suite.Require().True(point.OK)
		suite.InDelta(100.0, point.Value, 1e-9)
	}
}

func (suite *ADXTestSuite) TestValueStaysInRange() {
	adx, err := NewADX(5)
	suite.Require().NoError(err)

	mixed := barsFromCloses(
		50, 52, 49, 53, 48, 54, 47, 55, 46, 56,
		45, 57, 44, 58, 43, 59, 42, 60, 41, 61,
	)

	for _, point := range adx.Series(mixed) {
		if !point.OK {
			continue
		}

		suite.GreaterOrEqual(point.Value, 0.0)
		suite.LessOrEqual(point.Value, 100.0)
	}
}
