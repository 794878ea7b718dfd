package trades

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aristath/tradeledger/internal/domain"
)

// TradeDirection is the side of a closed round trip
type TradeDirection int

const (
	TradeDirectionLong TradeDirection = iota
	TradeDirectionShort
)

// String returns the direction name
func (d TradeDirection) String() string {
	if d == TradeDirectionShort {
		return "Short"
	}
	return "Long"
}

// sign returns +1 for long trades and -1 for short trades
func (d TradeDirection) sign() float64 {
	if d == TradeDirectionShort {
		return -1
	}
	return 1
}

// Trade is one closed round trip. Records are immutable once built and are
// appended to the closed-trade log in close-time order.
type Trade struct {
	Symbol     domain.Symbol  `json:"symbol"`
	EntryTime  time.Time      `json:"entry_time"`
	EntryPrice float64        `json:"entry_price"`
	Direction  TradeDirection `json:"direction"`
	Quantity   float64        `json:"quantity"`
	ExitTime   time.Time      `json:"exit_time"`
	ExitPrice  float64        `json:"exit_price"`
	ProfitLoss float64        `json:"profit_loss"`
	TotalFees  float64        `json:"total_fees"`
	MAE        float64        `json:"mae"`
	MFE        float64        `json:"mfe"`
}

// Duration returns how long the trade was open
func (t Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// EndTradeDrawdown is the worst move after the best one, a measure of exit
// timing.
func (t Trade) EndTradeDrawdown() float64 {
	return t.ProfitLoss - t.MFE
}

// GroupingMethod selects how fills are reconstructed into round trips
type GroupingMethod int

const (
	// FillToFill matches each fill against open lots one by one
	FillToFill GroupingMethod = iota
	// FlatToFlat emits a single trade per flat-to-flat excursion
	FlatToFlat
	// FlatToReduced emits a trade for every reduction of the position
	FlatToReduced
)

// String returns the grouping method name
func (g GroupingMethod) String() string {
	switch g {
	case FlatToFlat:
		return "FlatToFlat"
	case FlatToReduced:
		return "FlatToReduced"
	default:
		return "FillToFill"
	}
}

// ParseGroupingMethod parses a grouping method name (case-insensitive)
func ParseGroupingMethod(value string) (GroupingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "filltofill", "fill_to_fill":
		return FillToFill, nil
	case "flattoflat", "flat_to_flat":
		return FlatToFlat, nil
	case "flattoreduced", "flat_to_reduced":
		return FlatToReduced, nil
	default:
		return 0, fmt.Errorf("invalid grouping method: %s", value)
	}
}

// MatchingOrder is the tie-break used to pick which open lot or buffered fill
// offsets an opposing fill first.
type MatchingOrder int

const (
	// FIFO matches the oldest open lot first
	FIFO MatchingOrder = iota
	// LIFO matches the newest open lot first
	LIFO
)

// String returns the matching order name
func (m MatchingOrder) String() string {
	if m == LIFO {
		return "LIFO"
	}
	return "FIFO"
}

// ParseMatchingOrder parses a matching order name (case-insensitive)
func ParseMatchingOrder(value string) (MatchingOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	default:
		return 0, fmt.Errorf("invalid matching order: %s", value)
	}
}

// round2 rounds to 2 decimal places; closed trades are rounded at
// construction time while running averages keep full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
