package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type MACDTestSuite struct {
	suite.Suite
}

func TestMACDSuite(t *testing.T) {
	suite.Run(t, new(MACDTestSuite))
}

// A compounding uptrend keeps the fast EMA above the slow EMA and the
// histogram settles at a positive steady state.
func (suite *MACDTestSuite) TestUptrendHistogramConvergesPositive() {
	macd, err := NewMACD(12, 26, 9)
	suite.Require().NoError(err)

	series := macd.Series(barsFromCloses(risingCloses(150)...))

	for i := 26; i < len(series); i++ {
		suite.Require().True(series[i].OK)
		suite.Require().NotNil(series[i].MACD)
		suite.Greater(series[i].MACD.MACD, 0.0, "index %d", i)
	}
}

// The exposed MACD field is the histogram: raw macd minus signal line.
func (suite *MACDTestSuite) TestFirstValueSeedsSignalLine() {
	macd, err := NewMACD(3, 5, 2)
	suite.Require().NoError(err)

	bars := barsFromCloses(1, 2, 3, 4, 5)
	point := macd.Compute(bars)
	suite.Require().True(point.OK)
	suite.Require().NotNil(point.MACD)

	// fastEMA seed = mean(3,4,5)... computed from index 0: mean(1,2,3)=2,
	// then 3, 4 closes: ema=(4-2)*0.5+2=3, (5-3)*0.5+3=4.
	// slowEMA seed = mean(1..5) = 3. First macd value = 4-3 = 1 and it
	// seeds the signal line, so the histogram starts at exactly zero.
	suite.InDelta(0.0, point.MACD.MACD, 1e-12)
	suite.InDelta(1.0, point.MACD.SignalLine, 1e-12)
}

func (suite *MACDTestSuite) TestInsufficientBelowSlowPeriod() {
	macd, err := NewMACD(12, 26, 9)
	suite.Require().NoError(err)

	suite.False(macd.Compute(barsFromCloses(risingCloses(25)...)).OK)
	suite.True(macd.Compute(barsFromCloses(risingCloses(26)...)).OK)
}
