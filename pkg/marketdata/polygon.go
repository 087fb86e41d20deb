package marketdata

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// PolygonProvider fetches minute aggregates from Polygon.io.
type PolygonProvider struct {
	client *polygon.Client
}

func NewPolygonProvider(apiKey string) *PolygonProvider {
	return &PolygonProvider{
		client: polygon.New(apiKey),
	}
}

func (p *PolygonProvider) Name() ProviderType {
	return ProviderPolygon
}

// FetchBars streams aggregates for the range through the list iterator. An
// iterator failure mid-stream keeps the bars collected so far and returns
// them with the error.
func (p *PolygonProvider) FetchBars(ctx context.Context, symbol string, tf types.Timeframe, start, end time.Time) ([]types.Bar, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: tf.Minutes(),
		Timespan:   models.Minute,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	span := time.Duration(tf.Minutes()) * time.Minute
	bars := make([]types.Bar, 0)
	iter := p.client.ListAggs(ctx, params)

	for iter.Next() {
		agg := iter.Item()
		openTime := time.Time(agg.Timestamp)

		bars = append(bars, types.Bar{
			OpenTime:  openTime,
			Open:      agg.Open,
			High:      agg.High,
			Low:       agg.Low,
			Close:     agg.Close,
			Volume:    agg.Volume,
			CloseTime: openTime.Add(span),
		})
	}

	if err := iter.Err(); err != nil {
		return bars, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "iterate polygon aggregates", err)
	}

	return bars, nil
}
