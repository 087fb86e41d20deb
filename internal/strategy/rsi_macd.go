package strategy

import (
	"fmt"

	"github.com/istin/tradingaizer/internal/indicator"
	"github.com/istin/tradingaizer/internal/types"
)

const (
	defaultRSIPeriod  = 14
	defaultMACDFast   = 12
	defaultMACDSlow   = 26
	defaultMACDSignal = 9

	defaultRSIOversold   = 40.0
	defaultRSIOverbought = 60.0
)

// RSIMACDStrategy is the reference momentum policy: it goes long when RSI
// signals an oversold market while MACD momentum already turned positive,
// and short on the mirrored condition. Anything else is a HOLD.
type RSIMACDStrategy struct {
	rsi        *indicator.RSI
	macd       *indicator.MACD
	oversold   float64
	overbought float64
}

// NewRSIMACDStrategy builds the policy with the classic RSI(14) and
// MACD(12,26,9) parameterization.
func NewRSIMACDStrategy() (*RSIMACDStrategy, error) {
	rsi, err := indicator.NewRSI(defaultRSIPeriod)
	if err != nil {
		return nil, err
	}

	macd, err := indicator.NewMACD(defaultMACDFast, defaultMACDSlow, defaultMACDSignal)
	if err != nil {
		return nil, err
	}

	return &RSIMACDStrategy{
		rsi:        rsi,
		macd:       macd,
		oversold:   defaultRSIOversold,
		overbought: defaultRSIOverbought,
	}, nil
}

func (s *RSIMACDStrategy) Name() string {
	return "rsi-macd"
}

func (s *RSIMACDStrategy) GenerateDecision(data ChartData, tf types.Timeframe, m1Prefix int) types.DecisionReason {
	rsiPoint, err := data.Indicator(s.rsi, tf, m1Prefix)
	if err != nil {
		return types.Hold("no clear signal")
	}

	macdPoint, err := data.Indicator(s.macd, tf, m1Prefix)
	if err != nil {
		return types.Hold("no clear signal")
	}

	if !rsiPoint.OK || !macdPoint.OK || macdPoint.MACD == nil {
		return types.Hold("no clear signal")
	}

	rsiValue := rsiPoint.Value
	histogram := macdPoint.MACD.MACD

	switch {
	case rsiValue < s.oversold && histogram > 0:
		return types.DecisionReason{
			Decision: types.DecisionLong,
			Reason:   fmt.Sprintf("RSI %.2f below %.0f with positive MACD momentum %.4f", rsiValue, s.oversold, histogram),
		}
	case rsiValue > s.overbought && histogram < 0:
		return types.DecisionReason{
			Decision: types.DecisionShort,
			Reason:   fmt.Sprintf("RSI %.2f above %.0f with negative MACD momentum %.4f", rsiValue, s.overbought, histogram),
		}
	default:
		return types.Hold("no clear signal")
	}
}
