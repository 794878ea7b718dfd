package securities

import (
	"math"

	"github.com/aristath/tradeledger/internal/domain"
)

// SecurityHolding is the continuously-updated position state of one
// instrument. Quantity sign encodes the side: positive long, negative short,
// zero flat.
//
// All mutation happens on the fill thread through the accounting model; the
// only write path for (averagePrice, quantity) is SetHoldings so the pair is
// always committed together.
type SecurityHolding struct {
	Symbol domain.Symbol

	quantity     float64
	averagePrice float64

	totalFees       float64
	totalSaleVolume float64
	realizedProfit  float64
	lastTradeProfit float64
	lastMarketPrice float64
}

// NewSecurityHolding creates a flat holding for the symbol
func NewSecurityHolding(symbol domain.Symbol) *SecurityHolding {
	return &SecurityHolding{Symbol: symbol}
}

// Quantity returns the signed position size
func (h *SecurityHolding) Quantity() float64 {
	return h.quantity
}

// AbsQuantity returns the unsigned position size
func (h *SecurityHolding) AbsQuantity() float64 {
	return math.Abs(h.quantity)
}

// AveragePrice returns the running weighted-average entry price
func (h *SecurityHolding) AveragePrice() float64 {
	return h.averagePrice
}

// Invested reports whether the holding has exposure in either direction
func (h *SecurityHolding) Invested() bool {
	return h.quantity != 0
}

// IsLong returns true for a positive position
func (h *SecurityHolding) IsLong() bool {
	return h.quantity > 0
}

// IsShort returns true for a negative position
func (h *SecurityHolding) IsShort() bool {
	return h.quantity < 0
}

// SetHoldings commits a recomputed (averagePrice, quantity) pair in a single
// write.
func (h *SecurityHolding) SetHoldings(averagePrice, quantity float64) {
	h.averagePrice = averagePrice
	h.quantity = quantity
}

// AddNewSale accumulates a fill's sale value (account currency)
func (h *SecurityHolding) AddNewSale(saleValue float64) {
	h.totalSaleVolume += saleValue
}

// AddNewFee accumulates a fill's fee (account currency)
func (h *SecurityHolding) AddNewFee(fee float64) {
	h.totalFees += fee
}

// AddNewProfit accumulates realized profit and records the last trade's
// profit.
func (h *SecurityHolding) AddNewProfit(profit float64) {
	h.realizedProfit += profit
	h.lastTradeProfit = profit
}

// TotalFees returns the accumulated fees for this holding
func (h *SecurityHolding) TotalFees() float64 {
	return h.totalFees
}

// TotalSaleVolume returns the accumulated sale volume
func (h *SecurityHolding) TotalSaleVolume() float64 {
	return h.totalSaleVolume
}

// RealizedProfit returns the accumulated realized profit
func (h *SecurityHolding) RealizedProfit() float64 {
	return h.realizedProfit
}

// LastTradeProfit returns the realized profit of the latest closing fill
func (h *SecurityHolding) LastTradeProfit() float64 {
	return h.lastTradeProfit
}

// LastMarketPrice returns the most recent observed market price
func (h *SecurityHolding) LastMarketPrice() float64 {
	return h.lastMarketPrice
}

// UpdateMarketPrice records the latest market price for valuation
func (h *SecurityHolding) UpdateMarketPrice(price float64) {
	h.lastMarketPrice = price
}
