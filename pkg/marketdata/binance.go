package marketdata

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// binancePageLimit is the maximum klines per request; a full page means
// more data may follow.
const binancePageLimit = 1000

// BinanceProvider fetches spot klines. Market data endpoints need no
// credentials.
type BinanceProvider struct {
	client *binance.Client
}

func NewBinanceProvider() *BinanceProvider {
	return &BinanceProvider{
		client: binance.NewClient("", ""),
	}
}

func (p *BinanceProvider) Name() ProviderType {
	return ProviderBinance
}

// FetchBars pages through the kline endpoint from start to end. The next
// page starts one millisecond after the previous page's last close time so
// no bar is duplicated. A malformed kline stops the fetch; the bars
// collected up to that point are returned alongside the parse error.
func (p *BinanceProvider) FetchBars(ctx context.Context, symbol string, tf types.Timeframe, start, end time.Time) ([]types.Bar, error) {
	interval, err := binanceInterval(tf)
	if err != nil {
		return nil, err
	}

	bars := make([]types.Bar, 0)
	cursor := start.UnixMilli()
	endMillis := end.UnixMilli()

	for cursor < endMillis {
		klines, err := p.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(cursor).
			EndTime(endMillis).
			Limit(binancePageLimit).
			Do(ctx)
		if err != nil {
			return bars, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "fetch klines", err)
		}

		if len(klines) == 0 {
			break
		}

		for _, kline := range klines {
			bar, err := barFromKline(kline)
			if err != nil {
				return bars, err
			}

			bars = append(bars, bar)
		}

		if len(klines) < binancePageLimit {
			break
		}

		cursor = klines[len(klines)-1].CloseTime + 1
	}

	return bars, nil
}

func barFromKline(kline *binance.Kline) (types.Bar, error) {
	fields := [5]string{kline.Open, kline.High, kline.Low, kline.Close, kline.Volume}

	var parsed [5]float64

	for i, raw := range fields {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
				"parse kline field %q", raw)
		}

		parsed[i] = value
	}

	return types.Bar{
		OpenTime:  time.UnixMilli(kline.OpenTime),
		Open:      parsed[0],
		High:      parsed[1],
		Low:       parsed[2],
		Close:     parsed[3],
		Volume:    parsed[4],
		CloseTime: time.UnixMilli(kline.CloseTime),
	}, nil
}

func binanceInterval(tf types.Timeframe) (string, error) {
	switch tf {
	case types.TimeframeM1:
		return "1m", nil
	case types.TimeframeM5:
		return "5m", nil
	case types.TimeframeM15:
		return "15m", nil
	case types.TimeframeM30:
		return "30m", nil
	case types.TimeframeH1:
		return "1h", nil
	case types.TimeframeH4:
		return "4h", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimeframe, "no Binance interval for timeframe %s", tf)
	}
}
