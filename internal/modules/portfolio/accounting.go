package portfolio

import (
	"fmt"
	"math"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/events"
)

// ProcessFill applies one fill to the holding and cash book. Failures are
// logged and swallowed: the holding keeps its last committed state and the
// engine keeps running, because a fill must never be lost nor crash the
// accounting path.
func (m *Manager) ProcessFill(fill domain.Fill) {
	if err := m.applyFill(fill); err != nil {
		m.log.Error().
			Err(err).
			Str("symbol", fill.Symbol.Value).
			Float64("quantity", fill.Quantity).
			Float64("price", fill.Price).
			Msg("Failed to apply fill")
		if m.events != nil {
			m.events.EmitError("portfolio", err, map[string]interface{}{
				"symbol": fill.Symbol.Value,
			})
		}
		return
	}

	if m.events != nil {
		m.events.Emit(events.FillProcessed, "portfolio", map[string]interface{}{
			"symbol":   fill.Symbol.Value,
			"quantity": fill.Quantity,
			"price":    fill.Price,
		})
	}
}

func (m *Manager) applyFill(fill domain.Fill) error {
	security, ok := m.Securities.Get(fill.Symbol)
	if !ok {
		return fmt.Errorf("no security registered for symbol %s", fill.Symbol.Value)
	}
	if fill.Direction == domain.DirectionHold {
		fill.Direction = domain.DirectionFromQuantity(fill.Quantity)
	}

	holding := security.Holdings
	conversionRate := security.QuoteCash.ConversionRate()
	multiplier := security.ContractMultiplier()

	// sale volume, in account currency
	saleValue := fill.Price * fill.AbsQuantity() * multiplier
	holding.AddNewSale(saleValue * conversionRate)

	// fees always come out of settled account-currency cash
	fee := math.Abs(fill.Fee)
	m.CashBook.AccountCurrencyCash().AddAmount(-fee)
	holding.AddNewFee(fee)

	// the fill's cash impact settles in the quote currency; a currency pair
	// additionally swaps the base-currency leg
	quoteDelta := -fill.Quantity * fill.Price
	if err := security.Settlement.ApplyFunds(m.CashBook, m.Unsettled, fill.UTCTime, security.Properties.QuoteCurrency, quoteDelta); err != nil {
		return fmt.Errorf("failed to settle quote leg: %w", err)
	}
	if fill.Symbol.SecurityType.IsCurrencyPair() && len(fill.Symbol.Value) >= 3 {
		baseCurrency := fill.Symbol.Value[:3]
		if err := security.Settlement.ApplyFunds(m.CashBook, m.Unsettled, fill.UTCTime, baseCurrency, fill.Quantity); err != nil {
			return fmt.Errorf("failed to settle base leg: %w", err)
		}
	}

	// a fill closes exposure when it trades against the holding's side
	closedPosition := (holding.IsLong() && fill.IsSell()) ||
		(holding.IsShort() && fill.IsBuy())
	if closedPosition {
		closeSign := 1.0
		if fill.Quantity > 0 {
			closeSign = -1
		}
		closedQuantity := math.Min(fill.AbsQuantity(), holding.AbsQuantity())

		lastTradeProfit := (fill.Price - holding.AveragePrice()) * closeSign * closedQuantity * conversionRate * multiplier
		holding.AddNewProfit(lastTradeProfit)

		// the transaction log discounts a round trip's entry fee as well as
		// its exit fee, approximated as twice this fill's fee
		m.addTransactionRecord(fill.UTCTime, lastTradeProfit-2*fee)
	}

	averagePrice, quantity := nextHoldingState(holding.AveragePrice(), holding.Quantity(), fill.Price, fill.Quantity)
	holding.SetHoldings(averagePrice, quantity)
	return nil
}

// nextHoldingState recomputes the (averagePrice, quantity) pair after a fill
func nextHoldingState(averagePrice, quantity, fillPrice, fillQuantity float64) (float64, float64) {
	newQuantity := quantity + fillQuantity

	switch {
	case quantity == 0:
		// opening from flat
		return fillPrice, newQuantity
	case (quantity > 0) == (fillQuantity > 0):
		// adding to the same side: weighted average by quantity
		return (averagePrice*quantity + fillPrice*fillQuantity) / newQuantity, newQuantity
	case newQuantity == 0:
		// landed exactly flat
		return 0, 0
	case (newQuantity > 0) != (quantity > 0):
		// crossed zero: the residual exposure starts at the fill's price
		return fillPrice, newQuantity
	default:
		// plain reduction keeps the entry price
		return averagePrice, newQuantity
	}
}
