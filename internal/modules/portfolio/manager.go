package portfolio

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/events"
	"github.com/aristath/tradeledger/internal/modules/cashbook"
	"github.com/aristath/tradeledger/internal/modules/margin"
	"github.com/aristath/tradeledger/internal/modules/securities"
)

// Manager owns one portfolio's cash book, holdings, and margin-call model,
// and exposes the portfolio-level aggregates. Fills arrive one at a time on
// the fill thread; only the cash amounts and the unsettled queue tolerate
// concurrent access (they carry their own locks).
type Manager struct {
	CashBook   *cashbook.CashBook
	Unsettled  *cashbook.UnsettledCashBook
	Securities *securities.SecurityManager

	marginCall    *margin.MarginCallModel
	defaultMargin securities.MarginModel
	transactions  map[time.Time]float64

	events *events.Manager
	log    zerolog.Logger
}

// NewManager creates a portfolio around a cash book and security universe
func NewManager(book *cashbook.CashBook, universe *securities.SecurityManager, marginCall *margin.MarginCallModel, ev *events.Manager, log zerolog.Logger) *Manager {
	return &Manager{
		CashBook:     book,
		Unsettled:    cashbook.NewUnsettledCashBook(),
		Securities:   universe,
		marginCall:   marginCall,
		transactions: map[time.Time]float64{},
		events:       ev,
		log:          log.With().Str("service", "portfolio").Logger(),
	}
}

// SetDefaultMarginModel sets the margin model applied to securities
// registered without one.
func (m *Manager) SetDefaultMarginModel(model securities.MarginModel) {
	m.defaultMargin = model
}

// AddSecurity registers a tradable security with the portfolio, applying the
// default margin model when the security carries none of its own.
func (m *Manager) AddSecurity(security *securities.Security) error {
	if security.Margin == nil && !security.IsInternal {
		security.Margin = m.defaultMargin
	}
	return m.Securities.Add(security)
}

// TotalHoldingsValue sums the signed market value of every tradable holding
func (m *Manager) TotalHoldingsValue() float64 {
	total := 0.0
	for _, sec := range m.Securities.Tradable() {
		total += sec.HoldingsValue()
	}
	return total
}

// TotalUnrealizedProfit sums the open profit of every tradable holding
func (m *Manager) TotalUnrealizedProfit() float64 {
	total := 0.0
	for _, sec := range m.Securities.Tradable() {
		total += sec.UnrealizedProfit()
	}
	return total
}

// TotalFees sums the fees paid across all holdings
func (m *Manager) TotalFees() float64 {
	total := 0.0
	for _, sec := range m.Securities.Tradable() {
		total += sec.Holdings.TotalFees()
	}
	return total
}

// TotalProfit sums the realized profit across all holdings
func (m *Manager) TotalProfit() float64 {
	total := 0.0
	for _, sec := range m.Securities.Tradable() {
		total += sec.Holdings.RealizedProfit()
	}
	return total
}

// TotalSaleVolume sums the sale volume across all holdings
func (m *Manager) TotalSaleVolume() float64 {
	total := 0.0
	for _, sec := range m.Securities.Tradable() {
		total += sec.Holdings.TotalSaleVolume()
	}
	return total
}

// TotalPortfolioValue is settled cash plus unsettled cash plus the market
// value of all holdings, in account currency.
func (m *Manager) TotalPortfolioValue() float64 {
	return m.CashBook.TotalValueInAccountCurrency() +
		m.Unsettled.TotalValueInAccountCurrency(m.CashBook) +
		m.TotalHoldingsValue()
}

// TotalMarginUsed sums the maintenance margin reserved by every holding
func (m *Manager) TotalMarginUsed() float64 {
	total := 0.0
	for _, sec := range m.Securities.Tradable() {
		if sec.Margin != nil {
			total += sec.Margin.MaintenanceMargin(sec)
		}
	}
	return total
}

// MarginRemaining is the portfolio value left after margin requirements
func (m *Manager) MarginRemaining() float64 {
	return m.TotalPortfolioValue() - m.TotalMarginUsed()
}

// ScanForMarginCall asks each invested security's margin model for a forced
// liquidation order. An empty result is the normal, healthy outcome.
func (m *Manager) ScanForMarginCall() []domain.SubmitOrderRequest {
	netLiquidationValue := m.TotalPortfolioValue()
	totalMargin := m.TotalMarginUsed()

	var candidates []domain.SubmitOrderRequest
	for _, sec := range m.Securities.Tradable() {
		if sec.Margin == nil || !sec.Holdings.Invested() {
			continue
		}
		if order := sec.Margin.GenerateMarginCallOrder(sec, netLiquidationValue, totalMargin); order != nil {
			candidates = append(candidates, *order)
		}
	}
	return candidates
}

// CheckMarginCall scans for margin calls and, when any are warranted,
// sequences the forced liquidations. Returns the tickets submitted.
func (m *Manager) CheckMarginCall() []*domain.OrderTicket {
	if m.marginCall == nil {
		return nil
	}

	candidates := m.ScanForMarginCall()
	if len(candidates) == 0 {
		return nil
	}

	m.log.Warn().Int("orders", len(candidates)).Msg("Margin call triggered")
	if m.events != nil {
		m.events.Emit(events.MarginCallIssued, "portfolio", map[string]interface{}{
			"candidate_orders": len(candidates),
			"margin_remaining": m.MarginRemaining(),
		})
	}

	return m.marginCall.ExecuteMarginCall(m, m.Securities, candidates)
}

// addTransactionRecord appends a dated profit record, advancing the key one
// millisecond at a time until it is free so same-timestamp closes never
// overwrite each other.
func (m *Manager) addTransactionRecord(utcTime time.Time, transactionProfitLoss float64) {
	key := utcTime
	for {
		if _, taken := m.transactions[key]; !taken {
			break
		}
		key = key.Add(time.Millisecond)
	}
	m.transactions[key] = transactionProfitLoss
}

// TransactionRecords returns a copy of the dated profit log
func (m *Manager) TransactionRecords() map[time.Time]float64 {
	out := make(map[time.Time]float64, len(m.transactions))
	for k, v := range m.transactions {
		out[k] = v
	}
	return out
}
