package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/modules/portfolio"
	"github.com/aristath/tradeledger/internal/modules/trades"
)

// ExecutionService is the in-process order router. Orders fill immediately at
// the security's last market price; the resulting fill is booked through
// portfolio accounting and trade reconstruction before the ticket is
// confirmed, so a caller blocking on WaitForFill observes fully applied
// state. It implements the margin module's OrderSubmitter boundary, which is
// how forced liquidations reach the books.
type ExecutionService struct {
	portfolio *portfolio.Manager
	builder   *trades.Builder
	log       zerolog.Logger
}

// NewExecutionService creates an execution service over the portfolio and
// trade builder.
func NewExecutionService(pm *portfolio.Manager, builder *trades.Builder, log zerolog.Logger) *ExecutionService {
	return &ExecutionService{
		portfolio: pm,
		builder:   builder,
		log:       log.With().Str("service", "execution").Logger(),
	}
}

// Submit fills the order at the security's current price and confirms the
// ticket. Orders for unknown or unpriced securities are rejected.
func (s *ExecutionService) Submit(req domain.SubmitOrderRequest) (*domain.OrderTicket, error) {
	if req.Quantity == 0 {
		return nil, fmt.Errorf("order %s has zero quantity", req.ID)
	}

	security, ok := s.portfolio.Securities.Get(req.Symbol)
	if !ok {
		return nil, fmt.Errorf("no security registered for symbol %s", req.Symbol.Value)
	}

	price := security.Price()
	if price == 0 {
		return nil, fmt.Errorf("no market price for symbol %s", req.Symbol.Value)
	}

	fill := domain.Fill{
		Symbol:    req.Symbol,
		UTCTime:   time.Now().UTC(),
		Price:     price,
		Quantity:  req.Quantity,
		Direction: domain.DirectionFromQuantity(req.Quantity),
		OrderID:   req.ID,
	}

	s.portfolio.ProcessFill(fill)
	if s.builder != nil {
		s.builder.ProcessFill(fill, security.QuoteCash.ConversionRate(), security.ContractMultiplier())
	}

	s.log.Info().
		Str("symbol", req.Symbol.Value).
		Float64("quantity", req.Quantity).
		Float64("price", price).
		Str("tag", req.Tag).
		Msg("Order executed")

	ticket := domain.NewOrderTicket(req)
	ticket.Confirm(fill)
	return ticket, nil
}
