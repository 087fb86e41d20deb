// Package backtest replays historical bars through a strategy and the
// position manager, journaling every decision and closed deal into an
// embedded DuckDB database for later inspection.
package backtest

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// Journal stores the replay trail: one row per evaluated decision and one
// row per finalized deal. The database lives in memory for the duration of
// one run.
type Journal struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

// NewJournal opens an in-memory DuckDB journal and creates its tables.
func NewJournal(l *logger.Logger) (*Journal, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalFailed, "open journal database", err)
	}

	j := &Journal{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: l,
	}

	if err := j.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return j, nil
}

func (j *Journal) initialize() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			bar_index INTEGER,
			timestamp TIMESTAMP,
			decision TEXT,
			reason TEXT,
			price DOUBLE,
			rsi DOUBLE,
			macd_histogram DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "create decisions table", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS deals (
			deal_id TEXT PRIMARY KEY,
			ticker TEXT,
			direction TEXT,
			opened_at TIMESTAMP,
			closed_at TIMESTAMP,
			entry_price DOUBLE,
			close_price DOUBLE,
			stop_loss DOUBLE,
			open_amount DOUBLE,
			closed_amount DOUBLE,
			message TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "create deals table", err)
	}

	return nil
}

// DecisionRecord is one journaled strategy evaluation. The indicator
// columns hold the cached values the engine looked up alongside the
// decision; they are absent while the indicators lack data.
type DecisionRecord struct {
	BarIndex      int
	Timestamp     time.Time
	Decision      types.Decision
	Reason        string
	Price         float64
	RSI           optional.Option[float64]
	MACDHistogram optional.Option[float64]
}

// RecordDecision appends one decision row.
func (j *Journal) RecordDecision(rec DecisionRecord) error {
	_, err := j.sq.
		Insert("decisions").
		Columns("bar_index", "timestamp", "decision", "reason", "price", "rsi", "macd_histogram").
		Values(
			rec.BarIndex, rec.Timestamp, string(rec.Decision), rec.Reason, rec.Price,
			optionalFloat(rec.RSI), optionalFloat(rec.MACDHistogram),
		).
		RunWith(j.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "insert decision", err)
	}

	return nil
}

// RecordDeal appends one finalized deal row.
func (j *Journal) RecordDeal(deal types.Deal) error {
	closedBar := deal.ClosedBar.TakeOr(types.Bar{})

	_, err := j.sq.
		Insert("deals").
		Columns(
			"deal_id", "ticker", "direction", "opened_at", "closed_at",
			"entry_price", "close_price", "stop_loss", "open_amount", "closed_amount", "message",
		).
		Values(
			deal.ID, deal.Ticker, string(deal.Direction),
			deal.OpenedBar.When(), closedBar.When(),
			deal.OpenedBar.Price(), closedBar.Price(),
			deal.StopLoss, deal.OpenAmount, deal.ClosedAmount, deal.Message,
		).
		RunWith(j.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "insert deal", err)
	}

	return nil
}

// DecisionCount returns journaled rows per decision kind.
func (j *Journal) DecisionCount() (map[types.Decision]int, error) {
	rows, err := j.sq.
		Select("decision", "COUNT(*)").
		From("decisions").
		GroupBy("decision").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalFailed, "count decisions", err)
	}
	defer rows.Close()

	counts := make(map[types.Decision]int)

	for rows.Next() {
		var (
			decision string
			count    int
		)

		if err := rows.Scan(&decision, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalFailed, "scan decision count", err)
		}

		counts[types.Decision(decision)] = count
	}

	return counts, rows.Err()
}

// DealCount returns the number of journaled deals.
func (j *Journal) DealCount() (int, error) {
	var count int

	err := j.sq.
		Select("COUNT(*)").
		From("deals").
		RunWith(j.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeJournalFailed, "count deals", err)
	}

	return count, nil
}

// Close releases the journal database.
func (j *Journal) Close() {
	if err := j.db.Close(); err != nil {
		j.logger.Warn("journal close failed", zap.Error(err))
	}
}

func optionalFloat(v optional.Option[float64]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap()
}
