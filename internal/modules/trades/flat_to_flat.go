package trades

import (
	"math"

	"github.com/aristath/tradeledger/internal/domain"
)

// flatToFlatStrategy buffers every raw fill until the running signed sum
// returns to flat (or crosses it), then emits one trade for the whole round
// trip.
type flatToFlatStrategy struct{}

func (flatToFlatStrategy) processFill(b *Builder, fill domain.Fill, orderFee, conversionRate, multiplier float64) {
	pos, ok := b.positions[fill.Symbol]
	if !ok {
		pos = newPosition(fill.Price)
		pos.pendingFills = []domain.Fill{fill}
		pos.totalFees = orderFee
		b.positions[fill.Symbol] = pos
		return
	}

	pos.updateRange(fill.Price)

	net := pos.netQuantity()
	newNet := net + fill.Quantity
	if sameSign(newNet, net) && newNet != 0 {
		// still on the same side of flat, keep buffering
		pos.pendingFills = append(pos.pendingFills, fill)
		pos.totalFees += orderFee
		return
	}

	// flat or overshoot: the trigger is clipped to the offsetting amount
	trigger := fill
	trigger.Quantity = -net
	b.addClosedTrade(flatTrade(pos, trigger, pos.totalFees+orderFee, conversionRate, multiplier))

	if newNet == 0 {
		delete(b.positions, fill.Symbol)
		return
	}

	// overshoot: the residual opens a buffered position in the reversed
	// direction at the fill's price
	residual := fill
	residual.Quantity = newNet
	next := newPosition(fill.Price)
	next.pendingFills = []domain.Fill{residual}
	b.positions[fill.Symbol] = next
}

// flatTrade builds the single round-trip trade for a buffered position.
// Sides are determined relative to the first buffered fill: its side is the
// entry, the opposite side (plus the clipped trigger) is the exit. Both
// prices are quantity-weighted averages of their side.
func flatTrade(pos *position, trigger domain.Fill, fees, conversionRate, multiplier float64) Trade {
	first := pos.pendingFills[0]
	direction := tradeDirectionOf(first.Quantity)
	entryIsBuy := first.Quantity > 0

	var entryQty, entryNotional, exitQty, exitNotional float64
	for _, f := range pos.pendingFills {
		abs := math.Abs(f.Quantity)
		if (f.Quantity > 0) == entryIsBuy {
			entryQty += abs
			entryNotional += abs * f.Price
		} else {
			exitQty += abs
			exitNotional += abs * f.Price
		}
	}
	exitQty += math.Abs(trigger.Quantity)
	exitNotional += math.Abs(trigger.Quantity) * trigger.Price

	entryPrice := entryNotional / entryQty
	exitPrice := exitNotional / exitQty

	mae, mfe := pos.maeMFE(direction, entryPrice, entryQty, conversionRate, multiplier)
	return Trade{
		Symbol:     trigger.Symbol,
		EntryTime:  first.UTCTime,
		EntryPrice: entryPrice,
		Direction:  direction,
		Quantity:   entryQty,
		ExitTime:   trigger.UTCTime,
		ExitPrice:  exitPrice,
		ProfitLoss: round2((exitPrice - entryPrice) * entryQty * direction.sign() * multiplier * conversionRate),
		TotalFees:  fees,
		MAE:        mae,
		MFE:        mfe,
	}
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
