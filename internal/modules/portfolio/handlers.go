package portfolio

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler serves the read-only portfolio inspection API
type Handler struct {
	manager *Manager
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(manager *Manager, log zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio returns the portfolio snapshot: aggregates plus
// per-holding state.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	var holdings []map[string]interface{}
	for _, sec := range h.manager.Securities.Tradable() {
		if !sec.Holdings.Invested() {
			continue
		}
		holdings = append(holdings, map[string]interface{}{
			"symbol":            sec.Symbol.Value,
			"security_type":     sec.Symbol.SecurityType.String(),
			"quantity":          sec.Holdings.Quantity(),
			"average_price":     sec.Holdings.AveragePrice(),
			"last_market_price": sec.Holdings.LastMarketPrice(),
			"holdings_value":    sec.HoldingsValue(),
			"unrealized_profit": sec.UnrealizedProfit(),
			"realized_profit":   sec.Holdings.RealizedProfit(),
			"total_fees":        sec.Holdings.TotalFees(),
		})
	}

	h.writeJSON(w, map[string]interface{}{
		"total_portfolio_value":   h.manager.TotalPortfolioValue(),
		"total_holdings_value":    h.manager.TotalHoldingsValue(),
		"total_margin_used":       h.manager.TotalMarginUsed(),
		"margin_remaining":        h.manager.MarginRemaining(),
		"total_unrealized_profit": h.manager.TotalUnrealizedProfit(),
		"total_profit":            h.manager.TotalProfit(),
		"total_fees":              h.manager.TotalFees(),
		"total_sale_volume":       h.manager.TotalSaleVolume(),
		"holdings":                holdings,
	})
}

// HandleGetCash returns the cash book balances
func (h *Handler) HandleGetCash(w http.ResponseWriter, r *http.Request) {
	var entries []map[string]interface{}
	for _, cash := range h.manager.CashBook.Currencies() {
		entries = append(entries, map[string]interface{}{
			"currency":                  cash.CurrencyCode,
			"amount":                    cash.Amount(),
			"conversion_rate":           cash.ConversionRate(),
			"value_in_account_currency": cash.ValueInAccountCurrency(),
			"is_base_currency":          cash.IsBaseCurrency(),
		})
	}

	h.writeJSON(w, map[string]interface{}{
		"account_currency": h.manager.CashBook.AccountCurrency(),
		"total_value":      h.manager.CashBook.TotalValueInAccountCurrency(),
		"unsettled_count":  h.manager.Unsettled.Len(),
		"entries":          entries,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
