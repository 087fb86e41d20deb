package backtest

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
)

type JournalTestSuite struct {
	suite.Suite
	journal *Journal
}

func TestJournalTestSuite(t *testing.T) {
	suite.Run(t, new(JournalTestSuite))
}

func (s *JournalTestSuite) SetupTest() {
	journal, err := NewJournal(logger.NewNopLogger())
	s.Require().NoError(err)
	s.journal = journal
}

func (s *JournalTestSuite) TearDownTest() {
	s.journal.Close()
}

func (s *JournalTestSuite) TestDecisionCounts() {
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []DecisionRecord{
		{BarIndex: 0, Timestamp: when, Decision: types.DecisionHold, Reason: "no clear signal", Price: 100},
		{BarIndex: 1, Timestamp: when.Add(time.Minute), Decision: types.DecisionHold, Reason: "no clear signal", Price: 101},
		{
			BarIndex:      2,
			Timestamp:     when.Add(2 * time.Minute),
			Decision:      types.DecisionLong,
			Reason:        "oversold bounce",
			Price:         99,
			RSI:           optional.Some(35.2),
			MACDHistogram: optional.Some(0.04),
		},
	}

	for _, rec := range records {
		s.Require().NoError(s.journal.RecordDecision(rec))
	}

	counts, err := s.journal.DecisionCount()
	s.Require().NoError(err)
	s.Equal(2, counts[types.DecisionHold])
	s.Equal(1, counts[types.DecisionLong])
}

func (s *JournalTestSuite) TestDealCount() {
	count, err := s.journal.DealCount()
	s.Require().NoError(err)
	s.Zero(count)

	opened := types.Bar{
		OpenTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:      100,
		High:      100,
		Low:       100,
		Close:     100,
		CloseTime: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
	}
	closedBar := opened
	closedBar.Close = 104.5

	deal := types.Deal{
		ID:           "deal-1",
		Ticker:       "BTCUSDT",
		Direction:    types.DirectionLong,
		OpenedBar:    opened,
		ClosedBar:    optional.Some(closedBar),
		StopLoss:     103.48,
		OpenAmount:   100,
		ClosedAmount: 104.5,
		Message:      "[DEAL] Deal closed. Reason: Take-profit reached.",
	}
	s.Require().NoError(s.journal.RecordDeal(deal))

	count, err = s.journal.DealCount()
	s.Require().NoError(err)
	s.Equal(1, count)
}
