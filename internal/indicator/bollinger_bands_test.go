package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BollingerBandsTestSuite struct {
	suite.Suite
}

func TestBollingerBandsSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsTestSuite))
}

// Flat closes collapse all three bands onto the price.
func (suite *BollingerBandsTestSuite) TestFlatSeries() {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 42
	}

	bands, err := NewBollingerBands(20, 2)
	suite.Require().NoError(err)

	point := bands.Compute(barsFromCloses(closes...))
	suite.Require().True(point.OK)
	suite.Require().NotNil(point.Bands)
	suite.Equal(42.0, point.Bands.Upper)
	suite.Equal(42.0, point.Bands.Middle)
	suite.Equal(42.0, point.Bands.Lower)
}

// Population standard deviation over an alternating window.
func (suite *BollingerBandsTestSuite) TestAlternatingWindow() {
	bands, err := NewBollingerBands(4, 2)
	suite.Require().NoError(err)

	point := bands.Compute(barsFromCloses(9, 11, 9, 11))
	suite.Require().True(point.OK)
	suite.Require().NotNil(point.Bands)

	// mean = 10, population sigma = 1.
	suite.InDelta(10.0, point.Bands.Middle, 1e-12)
	suite.InDelta(12.0, point.Bands.Upper, 1e-12)
	suite.InDelta(8.0, point.Bands.Lower, 1e-12)
}

func (suite *BollingerBandsTestSuite) TestBandOrdering() {
	bands, err := NewBollingerBands(20, 2)
	suite.Require().NoError(err)

	for _, point := range bands.Series(barsFromCloses(risingCloses(60)...)) {
		if !point.OK {
			continue
		}

		suite.Require().NotNil(point.Bands)
		suite.True(point.Bands.Lower <= point.Bands.Middle)
		suite.True(point.Bands.Middle <= point.Bands.Upper)
		suite.False(math.IsNaN(point.Bands.Middle))
	}
}
