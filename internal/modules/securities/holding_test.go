package securities

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/tradeledger/internal/domain"
)

func TestSecurityHoldingSetHoldings(t *testing.T) {
	symbol := domain.NewSymbol("AAPL", domain.SecurityTypeEquity, "usa")
	holding := NewSecurityHolding(symbol)

	assert.False(t, holding.Invested())

	holding.SetHoldings(150.0, 10)
	assert.Equal(t, 150.0, holding.AveragePrice())
	assert.Equal(t, 10.0, holding.Quantity())
	assert.True(t, holding.Invested())
	assert.True(t, holding.IsLong())
	assert.False(t, holding.IsShort())

	holding.SetHoldings(145.0, -4)
	assert.Equal(t, 145.0, holding.AveragePrice())
	assert.Equal(t, -4.0, holding.Quantity())
	assert.Equal(t, 4.0, holding.AbsQuantity())
	assert.True(t, holding.IsShort())

	holding.SetHoldings(0, 0)
	assert.False(t, holding.Invested())
	assert.False(t, holding.IsLong())
	assert.False(t, holding.IsShort())
}

func TestSecurityHoldingAccumulators(t *testing.T) {
	symbol := domain.NewSymbol("AAPL", domain.SecurityTypeEquity, "usa")
	holding := NewSecurityHolding(symbol)

	holding.AddNewSale(1500)
	holding.AddNewSale(500)
	assert.Equal(t, 2000.0, holding.TotalSaleVolume())

	holding.AddNewFee(1)
	holding.AddNewFee(2.5)
	assert.Equal(t, 3.5, holding.TotalFees())

	holding.AddNewProfit(100)
	assert.Equal(t, 100.0, holding.RealizedProfit())
	assert.Equal(t, 100.0, holding.LastTradeProfit())

	holding.AddNewProfit(-30)
	assert.Equal(t, 70.0, holding.RealizedProfit())
	assert.Equal(t, -30.0, holding.LastTradeProfit())
}

func TestSecurityHoldingMarketPrice(t *testing.T) {
	symbol := domain.NewSymbol("AAPL", domain.SecurityTypeEquity, "usa")
	holding := NewSecurityHolding(symbol)

	holding.UpdateMarketPrice(152.5)
	assert.Equal(t, 152.5, holding.LastMarketPrice())
}
