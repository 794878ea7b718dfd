package margin

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/modules/cashbook"
	"github.com/aristath/tradeledger/internal/modules/securities"
)

type fakePortfolio struct {
	remaining float64
}

func (p *fakePortfolio) MarginRemaining() float64 {
	return p.remaining
}

// fakeSubmitter confirms every order immediately and credits the portfolio's
// margin remaining by a fixed amount per liquidation.
type fakeSubmitter struct {
	portfolio    *fakePortfolio
	creditPerUse float64
	submitted    []domain.SubmitOrderRequest
	confirm      bool
}

func (s *fakeSubmitter) Submit(req domain.SubmitOrderRequest) (*domain.OrderTicket, error) {
	s.submitted = append(s.submitted, req)
	s.portfolio.remaining += s.creditPerUse

	ticket := domain.NewOrderTicket(req)
	if s.confirm {
		ticket.Confirm(domain.Fill{
			Symbol:   req.Symbol,
			UTCTime:  time.Now().UTC(),
			Price:    100,
			Quantity: req.Quantity,
			OrderID:  req.ID,
		})
	}
	return ticket, nil
}

func marginTestUniverse(t *testing.T, unrealized map[string]float64) *securities.SecurityManager {
	t.Helper()

	quote, err := cashbook.NewCash("USD", 0, 1)
	require.NoError(t, err)
	quote.MarkAsBaseCurrency()

	universe := securities.NewSecurityManager()
	for value, profit := range unrealized {
		symbol := domain.NewSymbol(value, domain.SecurityTypeEquity, "usa")
		security := securities.NewSecurity(symbol, securities.DefaultSymbolProperties("USD"), quote)
		// 10 shares at $100, priced so UnrealizedProfit lands on the target
		security.Holdings.SetHoldings(100, 10)
		security.SetMarketPrice(100 + profit/10)
		require.NoError(t, universe.Add(security))
	}
	return universe
}

func candidateFor(universe *securities.SecurityManager, value string, quantity float64) domain.SubmitOrderRequest {
	symbol := domain.NewSymbol(value, domain.SecurityTypeEquity, "usa")
	return domain.NewSubmitOrderRequest(symbol, quantity, "Margin Call", time.Now().UTC())
}

func TestExecuteMarginCallNoopWhenMarginHealthy(t *testing.T) {
	portfolio := &fakePortfolio{remaining: 100}
	submitter := &fakeSubmitter{portfolio: portfolio, confirm: true}
	model := NewMarginCallModel(submitter, time.Second, zerolog.Nop())

	universe := marginTestUniverse(t, map[string]float64{"AAPL": -50})
	executed := model.ExecuteMarginCall(portfolio, universe, []domain.SubmitOrderRequest{candidateFor(universe, "AAPL", -10)})

	assert.Nil(t, executed)
	assert.Empty(t, submitter.submitted)
}

func TestExecuteMarginCallWithoutSubmitter(t *testing.T) {
	portfolio := &fakePortfolio{remaining: -100}
	model := NewMarginCallModel(nil, time.Second, zerolog.Nop())

	universe := marginTestUniverse(t, map[string]float64{"AAPL": -50})
	executed := model.ExecuteMarginCall(portfolio, universe, []domain.SubmitOrderRequest{candidateFor(universe, "AAPL", -10)})

	assert.Nil(t, executed)
}

func TestExecuteMarginCallLiquidatesLargestLosersFirst(t *testing.T) {
	portfolio := &fakePortfolio{remaining: -100}
	// no single liquidation restores margin, so every candidate executes
	submitter := &fakeSubmitter{portfolio: portfolio, creditPerUse: 10, confirm: true}
	model := NewMarginCallModel(submitter, time.Second, zerolog.Nop())

	universe := marginTestUniverse(t, map[string]float64{
		"AAPL": -50,
		"MSFT": -200,
		"GOOG": 30,
	})

	candidates := []domain.SubmitOrderRequest{
		candidateFor(universe, "AAPL", -10),
		candidateFor(universe, "GOOG", -10),
		candidateFor(universe, "MSFT", -10),
	}

	executed := model.ExecuteMarginCall(portfolio, universe, candidates)
	require.Len(t, executed, 3)

	var order []string
	for _, req := range submitter.submitted {
		order = append(order, req.Symbol.Value)
	}
	assert.Equal(t, []string{"MSFT", "AAPL", "GOOG"}, order)
}

func TestExecuteMarginCallStopsOnceMarginRestored(t *testing.T) {
	portfolio := &fakePortfolio{remaining: -100}
	// each liquidation frees enough to restore margin after the first
	submitter := &fakeSubmitter{portfolio: portfolio, creditPerUse: 150, confirm: true}
	model := NewMarginCallModel(submitter, time.Second, zerolog.Nop())

	universe := marginTestUniverse(t, map[string]float64{
		"AAPL": -50,
		"MSFT": -200,
	})

	candidates := []domain.SubmitOrderRequest{
		candidateFor(universe, "AAPL", -10),
		candidateFor(universe, "MSFT", -10),
	}

	executed := model.ExecuteMarginCall(portfolio, universe, candidates)
	require.Len(t, executed, 1)
	assert.Equal(t, "MSFT", executed[0].Request.Symbol.Value)
	assert.Len(t, submitter.submitted, 1)
}

func TestExecuteMarginCallFillTimeoutContinues(t *testing.T) {
	portfolio := &fakePortfolio{remaining: -100}
	// never confirms, so every wait times out, but execution still proceeds
	submitter := &fakeSubmitter{portfolio: portfolio, creditPerUse: 10, confirm: false}
	model := NewMarginCallModel(submitter, 10*time.Millisecond, zerolog.Nop())

	universe := marginTestUniverse(t, map[string]float64{
		"AAPL": -50,
		"MSFT": -200,
	})

	candidates := []domain.SubmitOrderRequest{
		candidateFor(universe, "AAPL", -10),
		candidateFor(universe, "MSFT", -10),
	}

	executed := model.ExecuteMarginCall(portfolio, universe, candidates)
	assert.Len(t, executed, 2)
}
