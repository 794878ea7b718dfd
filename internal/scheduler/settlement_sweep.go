package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/events"
	"github.com/aristath/tradeledger/internal/modules/cashbook"
)

// SettlementSweepJob moves matured unsettled cash into the settled book.
// It runs on the clock, independently of the fill stream; the unsettled
// queue's own lock keeps the two safe against each other.
type SettlementSweepJob struct {
	book      *cashbook.CashBook
	unsettled *cashbook.UnsettledCashBook
	events    *events.Manager
	log       zerolog.Logger
}

// NewSettlementSweepJob creates a settlement sweep over the portfolio's books
func NewSettlementSweepJob(book *cashbook.CashBook, unsettled *cashbook.UnsettledCashBook, ev *events.Manager, log zerolog.Logger) *SettlementSweepJob {
	return &SettlementSweepJob{
		book:      book,
		unsettled: unsettled,
		events:    ev,
		log:       log.With().Str("job", "settlement_sweep").Logger(),
	}
}

// Name returns the job name
func (j *SettlementSweepJob) Name() string {
	return "settlement_sweep"
}

// Run scans the unsettled queue once
func (j *SettlementSweepJob) Run() error {
	settled := j.unsettled.Scan(time.Now().UTC(), j.book)
	if settled > 0 {
		j.log.Info().Int("amounts", settled).Msg("Settled matured cash amounts")
		if j.events != nil {
			j.events.Emit(events.CashSettled, "scheduler", map[string]interface{}{
				"amounts": settled,
			})
		}
	}
	return nil
}
