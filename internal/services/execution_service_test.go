package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/modules/cashbook"
	"github.com/aristath/tradeledger/internal/modules/portfolio"
	"github.com/aristath/tradeledger/internal/modules/securities"
	"github.com/aristath/tradeledger/internal/modules/trades"
)

func newTestExecution(t *testing.T) (*ExecutionService, *portfolio.Manager, *trades.Builder, *securities.Security) {
	t.Helper()

	book, err := cashbook.NewCashBook("USD")
	require.NoError(t, err)
	book.AccountCurrencyCash().AddAmount(10000)

	universe := securities.NewSecurityManager()
	manager := portfolio.NewManager(book, universe, nil, nil, zerolog.Nop())

	symbol := domain.NewSymbol("AAPL", domain.SecurityTypeEquity, "usa")
	security := securities.NewSecurity(symbol, securities.DefaultSymbolProperties("USD"), book.AccountCurrencyCash())
	security.SetMarketPrice(100)
	require.NoError(t, manager.AddSecurity(security))

	builder := trades.NewBuilder(trades.Config{Grouping: trades.FillToFill}, zerolog.Nop())

	return NewExecutionService(manager, builder, zerolog.Nop()), manager, builder, security
}

func TestSubmitFillsAtMarketPrice(t *testing.T) {
	exec, manager, builder, security := newTestExecution(t)

	req := domain.NewSubmitOrderRequest(security.Symbol, 10, "", time.Now().UTC())
	ticket, err := exec.Submit(req)
	require.NoError(t, err)

	fill, err := ticket.WaitForFill(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 100.0, fill.Price)
	assert.Equal(t, 10.0, fill.Quantity)
	assert.Equal(t, req.ID, fill.OrderID)

	// the fill is booked before the ticket confirms
	assert.Equal(t, 10.0, security.Holdings.Quantity())
	assert.InDelta(t, 9000, manager.CashBook.AccountCurrencyCash().Amount(), 1e-9)
	assert.Equal(t, 10.0, builder.OpenQuantity(security.Symbol))
}

func TestSubmitClosesThroughTradeReconstruction(t *testing.T) {
	exec, _, builder, security := newTestExecution(t)

	_, err := exec.Submit(domain.NewSubmitOrderRequest(security.Symbol, 10, "", time.Now().UTC()))
	require.NoError(t, err)

	security.SetMarketPrice(110)
	_, err = exec.Submit(domain.NewSubmitOrderRequest(security.Symbol, -10, "Margin Call", time.Now().UTC()))
	require.NoError(t, err)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1)
	assert.Equal(t, 100.0, closed[0].ProfitLoss)
	assert.Equal(t, 100.0, security.Holdings.RealizedProfit())
}

func TestSubmitRejectsBadOrders(t *testing.T) {
	exec, _, _, security := newTestExecution(t)

	_, err := exec.Submit(domain.NewSubmitOrderRequest(security.Symbol, 0, "", time.Now().UTC()))
	assert.Error(t, err)

	unknown := domain.NewSymbol("MISSING", domain.SecurityTypeEquity, "usa")
	_, err = exec.Submit(domain.NewSubmitOrderRequest(unknown, 10, "", time.Now().UTC()))
	assert.Error(t, err)

	security.SetMarketPrice(0)
	_, err = exec.Submit(domain.NewSubmitOrderRequest(security.Symbol, 10, "", time.Now().UTC()))
	assert.Error(t, err)
}
