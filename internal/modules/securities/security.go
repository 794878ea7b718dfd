package securities

import (
	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/modules/cashbook"
)

// MarginModel computes margin requirements and forced-liquidation orders for
// one security. Implementations live in the margin module; the interface is
// declared here so a security can aggregate one without a dependency cycle.
type MarginModel interface {
	// InitialMarginRequired is the free cash needed to open the order
	InitialMarginRequired(security *Security, order domain.SubmitOrderRequest, orderFee float64) float64
	// MaintenanceMargin is the cash reserved against the current exposure
	MaintenanceMargin(security *Security) float64
	// MarginRemaining is the cash usable for an order in the given direction
	MarginRemaining(portfolioCash float64, security *Security, direction domain.OrderDirection) float64
	// GenerateMarginCallOrder synthesizes a liquidation order, or nil when no
	// call is warranted
	GenerateMarginCallOrder(security *Security, netLiquidationValue, totalMargin float64) *domain.SubmitOrderRequest
}

// Security is one tradable (or internal conversion) instrument: its contract
// metadata, the cash entry its prices are quoted in, its holding, and the
// capability models the portfolio consults for it.
type Security struct {
	Symbol     domain.Symbol
	Properties SymbolProperties

	// QuoteCash is the cash-book entry for the currency this security's
	// prices are quoted in; its conversion rate values fills in account
	// currency.
	QuoteCash *cashbook.Cash

	Holdings   *SecurityHolding
	Margin     MarginModel
	Settlement cashbook.SettlementModel

	// IsInternal marks feeds the engine added for itself, like currency
	// conversion pairs. Internal securities never participate in margin.
	IsInternal   bool
	Subscription *SubscriptionConfig

	price float64
}

// NewSecurity creates a security with a flat holding and immediate settlement
func NewSecurity(symbol domain.Symbol, props SymbolProperties, quoteCash *cashbook.Cash) *Security {
	return &Security{
		Symbol:     symbol,
		Properties: props,
		QuoteCash:  quoteCash,
		Holdings:   NewSecurityHolding(symbol),
		Settlement: cashbook.ImmediateSettlementModel{},
	}
}

// Price returns the last observed market price
func (s *Security) Price() float64 {
	return s.price
}

// SetMarketPrice records a new market price on the security and its holding
func (s *Security) SetMarketPrice(price float64) {
	s.price = price
	s.Holdings.UpdateMarketPrice(price)
}

// ContractMultiplier returns the units-per-contract scaling for this security
func (s *Security) ContractMultiplier() float64 {
	if s.Properties.ContractMultiplier == 0 {
		return 1
	}
	return s.Properties.ContractMultiplier
}

// HoldingsCost is the cost of the current exposure in account currency
func (s *Security) HoldingsCost() float64 {
	return s.Holdings.AveragePrice() * s.Holdings.Quantity() * s.ContractMultiplier() * s.QuoteCash.ConversionRate()
}

// HoldingsValue marks the current exposure to market in account currency
func (s *Security) HoldingsValue() float64 {
	return s.price * s.Holdings.Quantity() * s.ContractMultiplier() * s.QuoteCash.ConversionRate()
}

// UnrealizedProfit is the open profit of the exposure at the last market
// price, in account currency.
func (s *Security) UnrealizedProfit() float64 {
	return s.HoldingsValue() - s.HoldingsCost()
}
