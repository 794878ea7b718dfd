package margin

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/modules/securities"
)

// DefaultMarginCallBuffer keeps a 10% cushion between total margin used and
// net liquidation value before a margin call is issued.
const DefaultMarginCallBuffer = 0.10

// SecurityMarginModel computes margin requirements from a pair of fractions
// of notional exposure. It implements securities.MarginModel.
type SecurityMarginModel struct {
	InitialMarginFraction     float64
	MaintenanceMarginFraction float64

	// MarginCallBuffer is the headroom applied to net liquidation value
	// before a call is generated.
	MarginCallBuffer float64
}

// NewSecurityMarginModel creates a margin model from explicit fractions
func NewSecurityMarginModel(initial, maintenance float64) (*SecurityMarginModel, error) {
	if initial < 0 || initial > 1 {
		return nil, fmt.Errorf("initial margin fraction %v is outside [0,1]", initial)
	}
	if maintenance < 0 || maintenance > 1 {
		return nil, fmt.Errorf("maintenance margin fraction %v is outside [0,1]", maintenance)
	}

	return &SecurityMarginModel{
		InitialMarginFraction:     initial,
		MaintenanceMarginFraction: maintenance,
		MarginCallBuffer:          DefaultMarginCallBuffer,
	}, nil
}

// NewSecurityMarginModelFromLeverage derives both fractions from a single
// leverage value: fraction = 1/leverage.
func NewSecurityMarginModelFromLeverage(leverage float64) (*SecurityMarginModel, error) {
	if leverage < 1 {
		return nil, fmt.Errorf("leverage %v must be at least 1", leverage)
	}
	return NewSecurityMarginModel(1/leverage, 1/leverage)
}

// InitialMarginRequired is the order's notional scaled by the initial margin
// fraction, with the fee signed the same way as the notional.
func (m *SecurityMarginModel) InitialMarginRequired(security *securities.Security, order domain.SubmitOrderRequest, orderFee float64) float64 {
	notional := order.Quantity * security.Price() * security.ContractMultiplier() * security.QuoteCash.ConversionRate()

	fee := math.Abs(orderFee)
	if notional < 0 {
		fee = -fee
	}
	return notional*m.InitialMarginFraction + fee
}

// MaintenanceMargin is the absolute holdings cost scaled by the maintenance
// fraction.
func (m *SecurityMarginModel) MaintenanceMargin(security *securities.Security) float64 {
	return math.Abs(security.HoldingsCost()) * m.MaintenanceMarginFraction
}

// MarginRemaining is the cash usable for an order in the given direction. An
// order that closes the existing exposure frees the maintenance margin held
// against it and can reuse the initial margin the opposite exposure would
// need.
func (m *SecurityMarginModel) MarginRemaining(portfolioCash float64, security *securities.Security, direction domain.OrderDirection) float64 {
	holdings := security.Holdings
	if !holdings.Invested() {
		return portfolioCash
	}

	closing := (holdings.IsLong() && direction == domain.DirectionSell) ||
		(holdings.IsShort() && direction == domain.DirectionBuy)
	if !closing {
		return portfolioCash
	}

	cost := math.Abs(security.HoldingsCost())
	return portfolioCash + m.MaintenanceMargin(security) + cost*m.InitialMarginFraction
}

// GenerateMarginCallOrder synthesizes an order that liquidates just enough of
// the security's exposure to cover the margin shortfall. A nil return means
// no call is warranted, which is a normal outcome.
func (m *SecurityMarginModel) GenerateMarginCallOrder(security *securities.Security, netLiquidationValue, totalMargin float64) *domain.SubmitOrderRequest {
	buffer := m.MarginCallBuffer
	if buffer == 0 {
		buffer = DefaultMarginCallBuffer
	}
	if totalMargin <= netLiquidationValue*(1+buffer) {
		return nil
	}

	holdings := security.Holdings
	if !holdings.Invested() {
		return nil
	}

	rate := security.QuoteCash.ConversionRate()
	if rate == 0 {
		// conversion undefined, cannot price the shortfall
		return nil
	}

	unitPrice := security.Price() * security.ContractMultiplier()
	if unitPrice == 0 || m.MaintenanceMarginFraction == 0 {
		return nil
	}

	// shortfall in quote currency, then in units of the security
	delta := (totalMargin - netLiquidationValue) / rate
	quantity := math.Ceil(delta / unitPrice / m.MaintenanceMarginFraction)

	if quantity < 1 {
		quantity = 1
	}
	if quantity > holdings.AbsQuantity() {
		quantity = holdings.AbsQuantity()
	}
	if holdings.IsLong() {
		quantity = -quantity
	}

	order := domain.NewSubmitOrderRequest(security.Symbol, quantity, "Margin Call", time.Now().UTC())
	return &order
}
