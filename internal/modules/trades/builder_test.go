package trades

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradeledger/internal/domain"
)

var testSymbol = domain.NewSymbol("AAPL", domain.SecurityTypeEquity, "usa")

func testFill(at time.Time, price, quantity, fee float64, orderID string) domain.Fill {
	return domain.Fill{
		Symbol:    testSymbol,
		UTCTime:   at,
		Price:     price,
		Quantity:  quantity,
		Fee:       fee,
		Direction: domain.DirectionFromQuantity(quantity),
		OrderID:   orderID,
	}
}

func newTestBuilder(grouping GroupingMethod, matching MatchingOrder) *Builder {
	return NewBuilder(Config{Grouping: grouping, Matching: matching}, zerolog.Nop())
}

func TestFillToFillRoundTrip(t *testing.T) {
	builder := newTestBuilder(FillToFill, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	builder.ProcessFill(testFill(t0, 100, 10, 1, "o1"), 1, 1)
	assert.True(t, builder.HasOpenPosition(testSymbol))
	assert.Equal(t, 10.0, builder.OpenQuantity(testSymbol))

	builder.ProcessFill(testFill(t1, 110, -10, 2, "o2"), 1, 1)
	assert.False(t, builder.HasOpenPosition(testSymbol))

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1)

	trade := closed[0]
	assert.Equal(t, testSymbol, trade.Symbol)
	assert.Equal(t, TradeDirectionLong, trade.Direction)
	assert.Equal(t, 10.0, trade.Quantity)
	assert.Equal(t, t0, trade.EntryTime)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, t1, trade.ExitTime)
	assert.Equal(t, 110.0, trade.ExitPrice)
	assert.Equal(t, 100.0, trade.ProfitLoss)
	assert.Equal(t, 3.0, trade.TotalFees)
	assert.Equal(t, 0.0, trade.MAE)
	assert.Equal(t, 100.0, trade.MFE)
	assert.Equal(t, time.Hour, trade.Duration())
	assert.Equal(t, 0.0, trade.EndTradeDrawdown())
}

func TestFillToFillMatchingOrder(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		matching       MatchingOrder
		wantEntryPrice float64
		wantProfit     float64
	}{
		{name: "FIFO closes the oldest lot", matching: FIFO, wantEntryPrice: 100, wantProfit: 50},
		{name: "LIFO closes the newest lot", matching: LIFO, wantEntryPrice: 105, wantProfit: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := newTestBuilder(FillToFill, tt.matching)
			builder.ProcessFill(testFill(t0, 100, 5, 0, "o1"), 1, 1)
			builder.ProcessFill(testFill(t0.Add(time.Minute), 105, 5, 0, "o2"), 1, 1)
			builder.ProcessFill(testFill(t0.Add(2*time.Minute), 110, -5, 0, "o3"), 1, 1)

			closed := builder.ClosedTrades()
			require.Len(t, closed, 1)
			assert.Equal(t, tt.wantEntryPrice, closed[0].EntryPrice)
			assert.Equal(t, tt.wantProfit, closed[0].ProfitLoss)
			assert.Equal(t, 5.0, builder.OpenQuantity(testSymbol))
		})
	}
}

func TestFillToFillReversal(t *testing.T) {
	builder := newTestBuilder(FillToFill, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	builder.ProcessFill(testFill(t0, 100, 5, 1, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 110, -8, 2, "o2"), 1, 1)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1)
	assert.Equal(t, TradeDirectionLong, closed[0].Direction)
	assert.Equal(t, 5.0, closed[0].Quantity)
	assert.Equal(t, 50.0, closed[0].ProfitLoss)
	assert.Equal(t, 3.0, closed[0].TotalFees)

	// the unmatched 3 shares open a short at the fill price
	assert.Equal(t, -3.0, builder.OpenQuantity(testSymbol))

	builder.ProcessFill(testFill(t0.Add(2*time.Minute), 105, 3, 0, "o3"), 1, 1)
	closed = builder.ClosedTrades()
	require.Len(t, closed, 2)

	second := closed[1]
	assert.Equal(t, TradeDirectionShort, second.Direction)
	assert.Equal(t, 3.0, second.Quantity)
	assert.Equal(t, 110.0, second.EntryPrice)
	assert.Equal(t, 105.0, second.ExitPrice)
	assert.Equal(t, 15.0, second.ProfitLoss)
	assert.False(t, builder.HasOpenPosition(testSymbol))
}

func TestFillToFillSplitTracksExcursions(t *testing.T) {
	builder := newTestBuilder(FillToFill, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	builder.ProcessFill(testFill(t0, 100, 10, 0, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 90, -5, 0, "o2"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(2*time.Minute), 120, -5, 0, "o3"), 1, 1)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 2)

	first := closed[0]
	assert.Equal(t, -50.0, first.ProfitLoss)
	assert.Equal(t, -50.0, first.MAE)
	assert.Equal(t, 0.0, first.MFE)

	second := closed[1]
	assert.Equal(t, 100.0, second.ProfitLoss)
	assert.Equal(t, -50.0, second.MAE, "the adverse excursion persists for the rest of the position")
	assert.Equal(t, 100.0, second.MFE)
	assert.Equal(t, -200.0, second.EndTradeDrawdown())
}

func TestOrderFeeChargedOncePerOrder(t *testing.T) {
	builder := newTestBuilder(FillToFill, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	// one order filling in two pieces carries its fee on both fills
	builder.ProcessFill(testFill(t0, 100, 5, 2, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Second), 100, 5, 2, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 110, -10, 3, "o2"), 1, 1)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 2)

	total := closed[0].TotalFees + closed[1].TotalFees
	assert.Equal(t, 5.0, total, "the duplicate $2 fee is dropped")
}

func TestOrderFeeCacheEviction(t *testing.T) {
	cache := newOrderFeeCache(2)

	assert.True(t, cache.tryAdd("o1"))
	assert.False(t, cache.tryAdd("o1"))
	assert.True(t, cache.tryAdd("o2"))
	assert.True(t, cache.tryAdd("o3"))

	// o1 was evicted to stay within capacity
	assert.True(t, cache.tryAdd("o1"))
	assert.True(t, cache.tryAdd(""), "fills without an order id always charge")
	assert.True(t, cache.tryAdd(""))
}

func TestFlatToFlatSingleTrade(t *testing.T) {
	builder := newTestBuilder(FlatToFlat, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	builder.ProcessFill(testFill(t0, 100, 10, 1, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 105, -4, 1, "o2"), 1, 1)
	assert.Equal(t, 6.0, builder.OpenQuantity(testSymbol))
	assert.Equal(t, 0, builder.ClosedTradeCount(), "nothing closes until the position is flat")

	builder.ProcessFill(testFill(t0.Add(2*time.Minute), 110, -6, 1, "o3"), 1, 1)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1)

	trade := closed[0]
	assert.Equal(t, TradeDirectionLong, trade.Direction)
	assert.Equal(t, 10.0, trade.Quantity)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.InDelta(t, 108, trade.ExitPrice, 1e-9, "exit price is the volume-weighted sell price")
	assert.Equal(t, 80.0, trade.ProfitLoss)
	assert.Equal(t, 3.0, trade.TotalFees)
	assert.Equal(t, 0.0, trade.MAE)
	assert.Equal(t, 100.0, trade.MFE)
	assert.False(t, builder.HasOpenPosition(testSymbol))
}

func TestFlatToReducedPartialTrades(t *testing.T) {
	builder := newTestBuilder(FlatToReduced, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	builder.ProcessFill(testFill(t0, 100, 10, 1, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 105, -4, 1, "o2"), 1, 1)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1, "every reduction closes a trade immediately")

	first := closed[0]
	assert.Equal(t, 4.0, first.Quantity)
	assert.Equal(t, 100.0, first.EntryPrice)
	assert.Equal(t, 105.0, first.ExitPrice)
	assert.Equal(t, 20.0, first.ProfitLoss)
	assert.Equal(t, 1.0, first.TotalFees, "entry fees stay with the open position")
	assert.Equal(t, 6.0, builder.OpenQuantity(testSymbol))

	builder.ProcessFill(testFill(t0.Add(2*time.Minute), 110, -6, 1, "o3"), 1, 1)

	closed = builder.ClosedTrades()
	require.Len(t, closed, 2)

	second := closed[1]
	assert.Equal(t, 6.0, second.Quantity)
	assert.Equal(t, 100.0, second.EntryPrice)
	assert.Equal(t, 110.0, second.ExitPrice)
	assert.Equal(t, 60.0, second.ProfitLoss)
	assert.Equal(t, 2.0, second.TotalFees, "flattening attaches the remaining entry fees")
	assert.False(t, builder.HasOpenPosition(testSymbol))
}

func TestFlatToReducedEntryTimeByMatchingOrder(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	tests := []struct {
		name           string
		matching       MatchingOrder
		wantEntryPrice float64
		wantEntryTime  time.Time
	}{
		{name: "FIFO consumes the oldest entry", matching: FIFO, wantEntryPrice: 100, wantEntryTime: t0},
		{name: "LIFO consumes the newest entry", matching: LIFO, wantEntryPrice: 110, wantEntryTime: t1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := newTestBuilder(FlatToReduced, tt.matching)
			builder.ProcessFill(testFill(t0, 100, 5, 0, "o1"), 1, 1)
			builder.ProcessFill(testFill(t1, 110, 5, 0, "o2"), 1, 1)
			builder.ProcessFill(testFill(t0.Add(2*time.Minute), 120, -3, 0, "o3"), 1, 1)

			closed := builder.ClosedTrades()
			require.Len(t, closed, 1)
			assert.Equal(t, tt.wantEntryPrice, closed[0].EntryPrice)
			assert.Equal(t, tt.wantEntryTime, closed[0].EntryTime)
			assert.Equal(t, 7.0, builder.OpenQuantity(testSymbol))
		})
	}
}

func TestFlatToFlatReversal(t *testing.T) {
	builder := newTestBuilder(FlatToFlat, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	builder.ProcessFill(testFill(t0, 100, 10, 0, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 110, -15, 0, "o2"), 1, 1)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1)
	assert.Equal(t, TradeDirectionLong, closed[0].Direction)
	assert.Equal(t, 10.0, closed[0].Quantity)
	assert.Equal(t, 100.0, closed[0].ProfitLoss)
	assert.Equal(t, -5.0, builder.OpenQuantity(testSymbol))

	builder.ProcessFill(testFill(t0.Add(2*time.Minute), 105, 5, 0, "o3"), 1, 1)

	closed = builder.ClosedTrades()
	require.Len(t, closed, 2)
	second := closed[1]
	assert.Equal(t, TradeDirectionShort, second.Direction)
	assert.Equal(t, 5.0, second.Quantity)
	assert.Equal(t, 110.0, second.EntryPrice)
	assert.Equal(t, 25.0, second.ProfitLoss)
	assert.False(t, builder.HasOpenPosition(testSymbol))
}

func TestProcessFillAppliesRateAndMultiplier(t *testing.T) {
	builder := newTestBuilder(FillToFill, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	builder.ProcessFill(testFill(t0, 100, 10, 0, "o1"), 1.2, 10)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 110, -10, 0, "o2"), 1.2, 10)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1)
	// 10 price points * 10 contracts * 10 multiplier * 1.2 rate
	assert.Equal(t, 1200.0, closed[0].ProfitLoss)
	assert.Equal(t, 1200.0, closed[0].MFE)
}

func TestProcessFillIgnoresZeroQuantity(t *testing.T) {
	builder := newTestBuilder(FillToFill, FIFO)
	builder.ProcessFill(testFill(time.Now().UTC(), 100, 0, 1, "o1"), 1, 1)
	assert.False(t, builder.HasOpenPosition(testSymbol))
	assert.Equal(t, 0, builder.ClosedTradeCount())
}

func TestOnTradeClosedHook(t *testing.T) {
	builder := newTestBuilder(FillToFill, FIFO)
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	var seen []Trade
	builder.OnTradeClosed(func(trade Trade) {
		seen = append(seen, trade)
	})

	builder.ProcessFill(testFill(t0, 100, 10, 0, "o1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 110, -10, 0, "o2"), 1, 1)

	require.Len(t, seen, 1)
	assert.Equal(t, 100.0, seen[0].ProfitLoss)
}

func TestLiveModeTradeCountRetention(t *testing.T) {
	builder := NewBuilder(Config{
		Grouping: FillToFill,
		LiveMode: true,
	}, zerolog.Nop())

	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)
	for i := 0; i <= DefaultMaxTradeCount; i++ {
		at := t0.Add(time.Duration(i) * time.Second)
		orderID := fmt.Sprintf("buy-%d", i)
		builder.ProcessFill(testFill(at, 100, 1, 0, orderID), 1, 1)
		builder.ProcessFill(testFill(at, 101, -1, 0, "sell-"+orderID), 1, 1)
	}

	assert.Equal(t, DefaultMaxTradeCount, builder.ClosedTradeCount())

	// the oldest trade was the one evicted
	closed := builder.ClosedTrades()
	assert.Equal(t, t0.Add(time.Second), closed[0].ExitTime)
}

func TestLiveModeTradeAgeRetention(t *testing.T) {
	builder := NewBuilder(Config{
		Grouping: FillToFill,
		LiveMode: true,
	}, zerolog.Nop())

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	builder.ProcessFill(testFill(t0, 100, 1, 0, "a1"), 1, 1)
	builder.ProcessFill(testFill(t0.Add(time.Minute), 101, -1, 0, "a2"), 1, 1)

	later := t0.AddDate(0, 0, 370)
	builder.ProcessFill(testFill(later, 100, 1, 0, "b1"), 1, 1)
	builder.ProcessFill(testFill(later.Add(time.Minute), 101, -1, 0, "b2"), 1, 1)

	closed := builder.ClosedTrades()
	require.Len(t, closed, 1, "trades older than the retention window are purged")
	assert.Equal(t, later.Add(time.Minute), closed[0].ExitTime)
}

func TestOpenQuantityMatchesNetPosition(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)
	quantities := []float64{10, -4, -6, -5, 5, 3, -7, 4}

	for _, grouping := range []GroupingMethod{FillToFill, FlatToFlat, FlatToReduced} {
		for _, matching := range []MatchingOrder{FIFO, LIFO} {
			t.Run(fmt.Sprintf("%s_%s", grouping, matching), func(t *testing.T) {
				builder := newTestBuilder(grouping, matching)

				net := 0.0
				for i, qty := range quantities {
					fill := testFill(t0.Add(time.Duration(i)*time.Minute), 100+float64(i), qty, 0, fmt.Sprintf("o%d", i))
					builder.ProcessFill(fill, 1, 1)
					net += qty
					assert.InDelta(t, net, builder.OpenQuantity(testSymbol), 1e-9)
				}
			})
		}
	}
}
