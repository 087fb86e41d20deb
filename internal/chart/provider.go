// Package chart owns the per-session market data view: the base M1 bar
// series, lazily aggregated coarser timeframes, and a cached indicator
// engine on top of them. One Provider serves one session (a backtest run or
// a live trading session); nothing in this package is global.
package chart

import (
	"sync"

	"go.uber.org/zap"

	"github.com/istin/tradingaizer/internal/indicator"
	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// Provider exposes aggregated bar series and cached indicator values over a
// growing M1 history. All read methods take an M1 prefix length so a replay
// loop can ask "what was visible as of bar i" without copying history.
//
// Indicator results for completed aggregate groups are cached per
// (indicator key, timeframe). The trailing partial group is never cached:
// its aggregate changes as M1 bars arrive, so serving a cached value for it
// would return stale data.
type Provider struct {
	sessionID string
	bars1m    []types.Bar

	// mu guards aggregates; read methods for different timeframes and
	// indicators may run concurrently.
	mu         sync.RWMutex
	aggregates map[types.Timeframe][]types.Bar

	cache     *indicatorCache
	snapshots *snapshotStore
	logger    *logger.Logger
}

// ProviderOption configures a Provider at construction time.
type ProviderOption func(*Provider)

// WithSnapshotDir enables cache persistence under the given directory. The
// snapshot for this session is loaded immediately and written back after
// every recomputation.
func WithSnapshotDir(dir string) ProviderOption {
	return func(p *Provider) {
		p.snapshots = newSnapshotStore(dir, p.logger)
	}
}

// NewProvider creates a session data provider over the given M1 history.
// The session ID names the snapshot file when persistence is enabled;
// callers derive it from instrument, interval and time range so different
// data sets never share a snapshot.
func NewProvider(sessionID string, bars []types.Bar, l *logger.Logger, opts ...ProviderOption) *Provider {
	p := &Provider{
		sessionID:  sessionID,
		bars1m:     bars,
		aggregates: make(map[types.Timeframe][]types.Bar),
		cache:      newIndicatorCache(),
		logger:     l,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.snapshots != nil {
		p.cache.restore(p.snapshots.load(sessionID))
	}

	return p
}

// SessionID returns the session identifier the provider was created with.
func (p *Provider) SessionID() string {
	return p.sessionID
}

// Len returns the number of M1 bars currently available.
func (p *Provider) Len() int {
	return len(p.bars1m)
}

// Base returns the full M1 series. Callers must not mutate it.
func (p *Provider) Base() []types.Bar {
	return p.bars1m
}

// Append adds one M1 bar to the history and incrementally maintains every
// materialized aggregate series: the trailing group's aggregate is replaced
// in place until the group completes, then a new one is appended.
func (p *Provider) Append(bar types.Bar) {
	p.bars1m = append(p.bars1m, bar)

	p.mu.Lock()
	defer p.mu.Unlock()

	for tf, series := range p.aggregates {
		factor := tf.Minutes()
		groupIdx := (len(p.bars1m) - 1) / factor
		group := p.bars1m[groupIdx*factor:]

		if groupIdx < len(series) {
			series[groupIdx] = aggregateGroup(group)
		} else {
			p.aggregates[tf] = append(series, aggregateGroup(group))
		}
	}
}

// Bars returns the aggregate series for the timeframe as visible after the
// first m1Prefix base bars. Only completed groups are returned; the
// still-forming trailing group is excluded so strategies never act on an
// aggregate that is about to change.
func (p *Provider) Bars(tf types.Timeframe, m1Prefix int) ([]types.Bar, error) {
	if m1Prefix < 0 || m1Prefix > len(p.bars1m) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"prefix %d out of range, have %d bars", m1Prefix, len(p.bars1m))
	}

	completed := CompletedGroups(m1Prefix, tf)

	return p.aggregated(tf)[:completed:completed], nil
}

// Indicator returns the indicator's value at the last completed aggregate
// bar of the timeframe, as visible after the first m1Prefix base bars.
//
// Cached entries are served only when they were computed over at least as
// many completed groups as the request needs. On a miss the series is
// recomputed over all currently completed groups in one pass, published
// atomically, and persisted when snapshots are enabled.
func (p *Provider) Indicator(ind indicator.Indicator, tf types.Timeframe, m1Prefix int) (indicator.Point, error) {
	if m1Prefix < 0 || m1Prefix > len(p.bars1m) {
		return indicator.Point{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"prefix %d out of range, have %d bars", m1Prefix, len(p.bars1m))
	}

	completed := CompletedGroups(m1Prefix, tf)
	if completed == 0 {
		return indicator.Point{}, nil
	}

	key := cacheKey{Indicator: ind.Key(), Timeframe: tf}

	if entry, ok := p.cache.get(key); ok && entry.Complete >= completed && len(entry.Points) >= completed {
		return entry.Points[completed-1], nil
	}

	totalComplete := CompletedGroups(len(p.bars1m), tf)
	points := ind.Series(p.aggregated(tf)[:totalComplete])
	p.cache.put(key, cacheEntry{Points: points, Complete: totalComplete})

	if p.snapshots != nil {
		if err := p.snapshots.save(p.sessionID, p.cache.snapshot()); err != nil {
			p.logger.Warn("cache snapshot write failed",
				zap.String("session", p.sessionID),
				zap.Error(err))
		}
	}

	return points[completed-1], nil
}

// aggregated returns the memoized full aggregate series for the timeframe,
// materializing it on first access. Aggregation runs outside the lock so
// one timeframe's first materialization never blocks another's; two
// concurrent first accesses may both aggregate, the first publish wins.
func (p *Provider) aggregated(tf types.Timeframe) []types.Bar {
	if tf == types.TimeframeM1 {
		return p.bars1m
	}

	p.mu.RLock()
	series, ok := p.aggregates[tf]
	p.mu.RUnlock()

	if ok {
		return series
	}

	series = Aggregate(p.bars1m, tf)

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.aggregates[tf]; ok {
		return existing
	}

	p.aggregates[tf] = series

	return series
}
