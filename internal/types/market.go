package types

import (
	"time"

	"github.com/istin/tradingaizer/pkg/errors"
)

// Bar represents a single OHLCV candle at a fixed resolution.
// Bars are immutable once produced and ordered by OpenTime.
type Bar struct {
	OpenTime  time.Time `json:"open_time" yaml:"open_time"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    float64   `json:"volume" yaml:"volume"`
	CloseTime time.Time `json:"close_time" yaml:"close_time"`
}

// Price returns the reference price of the bar used for decision making.
func (b Bar) Price() float64 {
	return b.Close
}

// When returns the time the bar became final.
func (b Bar) When() time.Time {
	return b.CloseTime
}

// Timeframe is the aggregation span of a bar, expressed in minutes per bar
// relative to the base M1 resolution.
type Timeframe int

const (
	TimeframeM1  Timeframe = 1
	TimeframeM5  Timeframe = 5
	TimeframeM15 Timeframe = 15
	TimeframeM30 Timeframe = 30
	TimeframeH1  Timeframe = 60
	TimeframeH4  Timeframe = 240
)

// Minutes returns the number of M1 bars aggregated into one bar of this timeframe.
func (t Timeframe) Minutes() int {
	return int(t)
}

func (t Timeframe) String() string {
	switch t {
	case TimeframeM1:
		return "M1"
	case TimeframeM5:
		return "M5"
	case TimeframeM15:
		return "M15"
	case TimeframeM30:
		return "M30"
	case TimeframeH1:
		return "H1"
	case TimeframeH4:
		return "H4"
	default:
		return "unknown"
	}
}

// ParseTimeframe converts the string form back to a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	switch s {
	case "M1":
		return TimeframeM1, nil
	case "M5":
		return TimeframeM5, nil
	case "M15":
		return TimeframeM15, nil
	case "M30":
		return TimeframeM30, nil
	case "H1":
		return TimeframeH1, nil
	case "H4":
		return TimeframeH4, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unknown timeframe %q", s)
	}
}

// Timeframes lists all supported timeframes in ascending order.
func Timeframes() []Timeframe {
	return []Timeframe{TimeframeM1, TimeframeM5, TimeframeM15, TimeframeM30, TimeframeH1, TimeframeH4}
}
