package trades

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/domain"
)

// TradeRepository journals closed trades in the ledger database so the
// inspection API and restarts can see history beyond the in-memory log.
type TradeRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trades").Logger(),
	}
}

// Insert appends a closed trade to the journal
func (r *TradeRepository) Insert(trade Trade) error {
	query := `
		INSERT INTO trades
		(symbol, security_type, market, direction, quantity,
		 entry_time, entry_price, exit_time, exit_price,
		 profit_loss, total_fees, mae, mfe, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		trade.Symbol.Value,
		trade.Symbol.SecurityType.String(),
		trade.Symbol.Market,
		trade.Direction.String(),
		trade.Quantity,
		trade.EntryTime.UTC().Format(time.RFC3339Nano),
		trade.EntryPrice,
		trade.ExitTime.UTC().Format(time.RFC3339Nano),
		trade.ExitPrice,
		trade.ProfitLoss,
		trade.TotalFees,
		trade.MAE,
		trade.MFE,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	r.log.Debug().
		Str("symbol", trade.Symbol.Value).
		Float64("profit_loss", trade.ProfitLoss).
		Msg("Trade journaled")
	return nil
}

// ListRecent returns the most recent closed trades, newest first
func (r *TradeRepository) ListRecent(limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT symbol, security_type, market, direction, quantity,
		       entry_time, entry_price, exit_time, exit_price,
		       profit_loss, total_fees, mae, mfe
		FROM trades
		ORDER BY exit_time DESC
		LIMIT ?
	`

	rows, err := r.ledgerDB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, trade)
	}
	return out, rows.Err()
}

// Count returns the number of journaled trades
func (r *TradeRepository) Count() (int, error) {
	var count int
	if err := r.ledgerDB.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

func scanTrade(rows *sql.Rows) (Trade, error) {
	var (
		trade                           Trade
		securityType, market, direction string
		entryTime, exitTime             string
	)

	err := rows.Scan(
		&trade.Symbol.Value, &securityType, &market, &direction, &trade.Quantity,
		&entryTime, &trade.EntryPrice, &exitTime, &trade.ExitPrice,
		&trade.ProfitLoss, &trade.TotalFees, &trade.MAE, &trade.MFE,
	)
	if err != nil {
		return Trade{}, fmt.Errorf("failed to scan trade: %w", err)
	}

	trade.Symbol.Market = market
	trade.Symbol.SecurityType = parseSecurityType(securityType)
	if direction == "Short" {
		trade.Direction = TradeDirectionShort
	}
	if trade.EntryTime, err = time.Parse(time.RFC3339Nano, entryTime); err != nil {
		return Trade{}, fmt.Errorf("failed to parse entry time: %w", err)
	}
	if trade.ExitTime, err = time.Parse(time.RFC3339Nano, exitTime); err != nil {
		return Trade{}, fmt.Errorf("failed to parse exit time: %w", err)
	}
	return trade, nil
}

func parseSecurityType(value string) domain.SecurityType {
	switch value {
	case "Forex":
		return domain.SecurityTypeForex
	case "Cfd":
		return domain.SecurityTypeCfd
	case "Crypto":
		return domain.SecurityTypeCrypto
	case "Future":
		return domain.SecurityTypeFuture
	default:
		return domain.SecurityTypeEquity
	}
}
