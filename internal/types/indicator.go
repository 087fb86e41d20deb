package types

type IndicatorType string

const (
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeMA             IndicatorType = "ma"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeSuperTrend     IndicatorType = "super_trend"
	IndicatorTypeADX            IndicatorType = "adx"
	IndicatorTypeOBV            IndicatorType = "obv"
)
