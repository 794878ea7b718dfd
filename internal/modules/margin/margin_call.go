package margin

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/modules/securities"
)

// DefaultFillWaitTimeout bounds the wait on each liquidation order's fill
const DefaultFillWaitTimeout = 5 * time.Second

// OrderSubmitter is the order-routing boundary for forced liquidations
type OrderSubmitter interface {
	Submit(req domain.SubmitOrderRequest) (*domain.OrderTicket, error)
}

// MarginRemainingProvider exposes the portfolio aggregate the executor
// rechecks between liquidations.
type MarginRemainingProvider interface {
	MarginRemaining() float64
}

// MarginCallModel sequences forced-liquidation orders across a portfolio.
// Orders are executed one at a time, largest losers first, waiting for each
// fill before rechecking whether more liquidation is needed; this keeps the
// engine from over-liquidating when the first few orders already restore
// margin.
type MarginCallModel struct {
	submitter       OrderSubmitter
	fillWaitTimeout time.Duration
	log             zerolog.Logger
}

// NewMarginCallModel creates a margin call executor. A zero timeout falls
// back to the default.
func NewMarginCallModel(submitter OrderSubmitter, fillWaitTimeout time.Duration, log zerolog.Logger) *MarginCallModel {
	if fillWaitTimeout <= 0 {
		fillWaitTimeout = DefaultFillWaitTimeout
	}
	return &MarginCallModel{
		submitter:       submitter,
		fillWaitTimeout: fillWaitTimeout,
		log:             log.With().Str("service", "margin_call").Logger(),
	}
}

// SetSubmitter wires the order router. The router is built around the
// portfolio, which is built around this model, so it arrives after
// construction.
func (m *MarginCallModel) SetSubmitter(submitter OrderSubmitter) {
	m.submitter = submitter
}

// ExecuteMarginCall submits the candidate liquidation orders until margin
// remaining turns non-negative. It returns exactly the tickets that were
// submitted. A fill-wait timeout is logged and the order treated as
// unexecuted; it is never retried.
func (m *MarginCallModel) ExecuteMarginCall(portfolio MarginRemainingProvider, universe *securities.SecurityManager, candidates []domain.SubmitOrderRequest) []*domain.OrderTicket {
	if portfolio.MarginRemaining() >= 0 {
		return nil
	}
	if m.submitter == nil {
		m.log.Warn().Int("candidates", len(candidates)).Msg("Margin call pending but no order router is configured")
		return nil
	}

	// liquidate the largest losers first
	sorted := make([]domain.SubmitOrderRequest, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return m.unrealizedProfit(universe, sorted[i].Symbol) < m.unrealizedProfit(universe, sorted[j].Symbol)
	})

	var executed []*domain.OrderTicket
	for _, req := range sorted {
		ticket, err := m.submitter.Submit(req)
		if err != nil {
			m.log.Error().Err(err).Str("symbol", req.Symbol.Value).Msg("Failed to submit margin call order")
			continue
		}
		executed = append(executed, ticket)

		fill, err := ticket.WaitForFill(m.fillWaitTimeout)
		if err != nil {
			m.log.Error().Err(err).Str("symbol", req.Symbol.Value).Msg("Margin call order not filled in time")
		} else {
			m.log.Info().
				Str("symbol", req.Symbol.Value).
				Float64("quantity", fill.Quantity).
				Float64("price", fill.Price).
				Msg("Margin call order filled")
		}

		if portfolio.MarginRemaining() >= 0 {
			break
		}
	}
	return executed
}

func (m *MarginCallModel) unrealizedProfit(universe *securities.SecurityManager, symbol domain.Symbol) float64 {
	if security, ok := universe.Get(symbol); ok {
		return security.UnrealizedProfit()
	}
	return 0
}
