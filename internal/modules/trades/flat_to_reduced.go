package trades

import (
	"math"
	"time"

	"github.com/aristath/tradeledger/internal/domain"
)

// flatToReducedStrategy buffers fills like flat-to-flat but emits a partial
// trade the moment an opposing fill reduces the position, instead of waiting
// for full flattening.
type flatToReducedStrategy struct{}

func (flatToReducedStrategy) processFill(b *Builder, fill domain.Fill, orderFee, conversionRate, multiplier float64) {
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
	if sameSign(fill.Quantity, net) {
		pos.pendingFills = append(pos.pendingFills, fill)
		pos.totalFees += orderFee
		return
	}

	direction := tradeDirectionOf(net)
	absNet := math.Abs(net)
	absFill := fill.AbsQuantity()
	closeQty := math.Min(absFill, absNet)

	entryPrice, entryTime := consumePendingFills(pos, b.cfg.Matching, closeQty)

	fees := orderFee
	if absFill >= absNet {
		// full flatten or overshoot attaches the buffered entry fees too
		fees += pos.totalFees
		pos.totalFees = 0
	}

	mae, mfe := pos.maeMFE(direction, entryPrice, closeQty, conversionRate, multiplier)
	b.addClosedTrade(Trade{
		Symbol:     fill.Symbol,
		EntryTime:  entryTime,
		EntryPrice: entryPrice,
		Direction:  direction,
		Quantity:   closeQty,
		ExitTime:   fill.UTCTime,
		ExitPrice:  fill.Price,
		ProfitLoss: round2((fill.Price - entryPrice) * closeQty * direction.sign() * multiplier * conversionRate),
		TotalFees:  fees,
		MAE:        mae,
		MFE:        mfe,
	})

	switch {
	case absFill < absNet:
		// partial reduction, the position stays open
	case absFill == absNet:
		delete(b.positions, fill.Symbol)
	default:
		// overshoot: residual reverses the position
		residual := fill
		residual.Quantity = fill.Quantity + net
		next := newPosition(fill.Price)
		next.pendingFills = []domain.Fill{residual}
		b.positions[fill.Symbol] = next
	}
}

// consumePendingFills removes closeQty of exposure from the buffered fills in
// matching order and returns the quantity-weighted entry price of the
// consumed slice. Entry time starts at the oldest buffered fill; under LIFO
// it is reassigned to each consumed fill in turn, so the final value is the
// last fill the match walked.
func consumePendingFills(pos *position, matching MatchingOrder, closeQty float64) (float64, time.Time) {
	entryTime := pos.pendingFills[0].UTCTime
	entryPrice := 0.0
	executed := 0.0
	remaining := closeQty

	for remaining > 0 && len(pos.pendingFills) > 0 {
		idx := matchIndex(matching, len(pos.pendingFills))
		f := &pos.pendingFills[idx]
		abs := math.Abs(f.Quantity)
		consumed := math.Min(remaining, abs)

		entryPrice = (entryPrice*executed + f.Price*consumed) / (executed + consumed)
		executed += consumed
		remaining -= consumed

		if matching == LIFO {
			entryTime = f.UTCTime
		}

		if consumed >= abs {
			pos.pendingFills = append(pos.pendingFills[:idx], pos.pendingFills[idx+1:]...)
		} else {
			if f.Quantity > 0 {
				f.Quantity -= consumed
			} else {
				f.Quantity += consumed
			}
		}
	}
	return entryPrice, entryTime
}
