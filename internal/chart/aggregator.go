package chart

import (
	"github.com/istin/tradingaizer/internal/types"
)

// Aggregate converts base-resolution M1 bars into coarser bars by grouping
// consecutive, non-overlapping runs of tf.Minutes() bars. Each group emits
// one bar with the group's max high, min low, last close and summed volume;
// open and open time come from the group's first bar. The final group may be
// shorter when the input length is not a multiple of the factor.
//
// The transform is pure: the aggregate at group index g depends only on that
// group's input bars, so recomputation over a longer prefix leaves all
// completed groups unchanged and only extends or replaces the trailing one.
func Aggregate(bars []types.Bar, tf types.Timeframe) []types.Bar {
	factor := tf.Minutes()
	if factor <= 1 {
		out := make([]types.Bar, len(bars))
		copy(out, bars)

		return out
	}

	out := make([]types.Bar, 0, (len(bars)+factor-1)/factor)

	for start := 0; start < len(bars); start += factor {
		end := min(start+factor, len(bars))
		out = append(out, aggregateGroup(bars[start:end]))
	}

	return out
}

// CompletedGroups returns how many full groups of tf.Minutes() bars fit into
// an M1 prefix of the given length.
func CompletedGroups(m1Len int, tf types.Timeframe) int {
	return m1Len / tf.Minutes()
}

func aggregateGroup(group []types.Bar) types.Bar {
	agg := types.Bar{
		OpenTime:  group[0].OpenTime,
		Open:      group[0].Open,
		High:      group[0].High,
		Low:       group[0].Low,
		Close:     group[len(group)-1].Close,
		CloseTime: group[len(group)-1].CloseTime,
	}

	for _, bar := range group {
		agg.High = max(agg.High, bar.High)
		agg.Low = min(agg.Low, bar.Low)
		agg.Volume += bar.Volume
	}

	return agg
}
