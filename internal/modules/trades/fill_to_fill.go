package trades

import (
	"github.com/aristath/tradeledger/internal/domain"
)

// fillToFillStrategy matches each opposing fill against the open lots one by
// one, emitting a trade per closed (or split) lot.
type fillToFillStrategy struct{}

func (fillToFillStrategy) processFill(b *Builder, fill domain.Fill, orderFee, conversionRate, multiplier float64) {
	pos, ok := b.positions[fill.Symbol]
	if !ok {
		pos = newPosition(fill.Price)
		pos.lots = append(pos.lots, lotFromFill(fill, orderFee))
		b.positions[fill.Symbol] = pos
		return
	}

	pos.updateRange(fill.Price)

	fillDirection := tradeDirectionOf(fill.Quantity)
	idx := matchIndex(b.cfg.Matching, len(pos.lots))
	if pos.lots[idx].Direction == fillDirection {
		pos.lots = append(pos.lots, lotFromFill(fill, orderFee))
		return
	}

	// opposing fill: walk the lots in matching order
	remaining := fill.AbsQuantity()
	feeCharged := false
	for remaining > 0 && len(pos.lots) > 0 {
		idx = matchIndex(b.cfg.Matching, len(pos.lots))
		l := pos.lots[idx]

		fee := 0.0
		if !feeCharged {
			fee = orderFee
			feeCharged = true
		}

		if remaining >= l.Quantity {
			// lot closes fully
			b.addClosedTrade(closeLot(fill, pos, l, l.Quantity, l.Fees+fee, conversionRate, multiplier))
			pos.lots = append(pos.lots[:idx], pos.lots[idx+1:]...)
			remaining -= l.Quantity
		} else {
			// split: the emitted trade inherits the lot's entry, the lot
			// keeps its remaining quantity and entry fee
			b.addClosedTrade(closeLot(fill, pos, l, remaining, fee, conversionRate, multiplier))
			l.Quantity -= remaining
			remaining = 0
		}
	}

	if remaining > 0 {
		// direction reversal: the unmatched residual opens a new lot
		pos.lots = append(pos.lots, &lot{
			EntryTime:  fill.UTCTime,
			EntryPrice: fill.Price,
			Direction:  fillDirection,
			Quantity:   remaining,
		})
		pos.resetRange(fill.Price)
		return
	}

	if len(pos.lots) == 0 {
		delete(b.positions, fill.Symbol)
	}
}

func lotFromFill(fill domain.Fill, orderFee float64) *lot {
	return &lot{
		EntryTime:  fill.UTCTime,
		EntryPrice: fill.Price,
		Direction:  tradeDirectionOf(fill.Quantity),
		Quantity:   fill.AbsQuantity(),
		Fees:       orderFee,
	}
}

func closeLot(fill domain.Fill, pos *position, l *lot, quantity, fees, conversionRate, multiplier float64) Trade {
	mae, mfe := pos.maeMFE(l.Direction, l.EntryPrice, quantity, conversionRate, multiplier)
	return Trade{
		Symbol:     fill.Symbol,
		EntryTime:  l.EntryTime,
		EntryPrice: l.EntryPrice,
		Direction:  l.Direction,
		Quantity:   quantity,
		ExitTime:   fill.UTCTime,
		ExitPrice:  fill.Price,
		ProfitLoss: round2((fill.Price - l.EntryPrice) * quantity * l.Direction.sign() * multiplier * conversionRate),
		TotalFees:  fees,
		MAE:        mae,
		MFE:        mfe,
	}
}

func tradeDirectionOf(signedQuantity float64) TradeDirection {
	if signedQuantity < 0 {
		return TradeDirectionShort
	}
	return TradeDirectionLong
}

func matchIndex(matching MatchingOrder, count int) int {
	if matching == LIFO {
		return count - 1
	}
	return 0
}
