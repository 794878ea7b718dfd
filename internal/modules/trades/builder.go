package trades

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/domain"
)

const (
	// DefaultFeeCacheCapacity bounds the order-fee dedup set
	DefaultFeeCacheCapacity = 1000
	// DefaultMaxTradeCount caps the live-mode closed-trade log
	DefaultMaxTradeCount = 10000
	// DefaultMaxTradeAge purges live-mode trades closed longer ago than this
	DefaultMaxTradeAge = 365 * 24 * time.Hour
)

// Config holds the trade reconstruction knobs
type Config struct {
	Grouping GroupingMethod
	Matching MatchingOrder

	// LiveMode enables the retention caps; back-testing keeps full history
	LiveMode         bool
	MaxTradeCount    int
	MaxTradeAge      time.Duration
	FeeCacheCapacity int
}

// groupingStrategy is the per-mode fill handler, chosen once at construction
type groupingStrategy interface {
	processFill(b *Builder, fill domain.Fill, orderFee, conversionRate, multiplier float64)
}

// Builder reconstructs closed round-trip trades from a stream of fills. One
// builder serves a whole portfolio, with independent position state per
// symbol. Fills must arrive one at a time; the builder is not internally
// locked.
type Builder struct {
	cfg      Config
	strategy groupingStrategy

	positions map[domain.Symbol]*position
	closed    []Trade
	feeCache  *orderFeeCache

	onClosed func(Trade)
	log      zerolog.Logger
}

// NewBuilder creates a trade builder; the grouping mode is dispatched here,
// not re-checked per fill.
func NewBuilder(cfg Config, log zerolog.Logger) *Builder {
	if cfg.MaxTradeCount <= 0 {
		cfg.MaxTradeCount = DefaultMaxTradeCount
	}
	if cfg.MaxTradeAge <= 0 {
		cfg.MaxTradeAge = DefaultMaxTradeAge
	}
	if cfg.FeeCacheCapacity <= 0 {
		cfg.FeeCacheCapacity = DefaultFeeCacheCapacity
	}

	b := &Builder{
		cfg:       cfg,
		positions: map[domain.Symbol]*position{},
		feeCache:  newOrderFeeCache(cfg.FeeCacheCapacity),
		log:       log.With().Str("service", "trade_builder").Logger(),
	}

	switch cfg.Grouping {
	case FlatToFlat:
		b.strategy = flatToFlatStrategy{}
	case FlatToReduced:
		b.strategy = flatToReducedStrategy{}
	default:
		b.strategy = fillToFillStrategy{}
	}
	return b
}

// OnTradeClosed registers a hook invoked for every closed trade, in close
// order. Used to journal trades and emit events.
func (b *Builder) OnTradeClosed(fn func(Trade)) {
	b.onClosed = fn
}

// ProcessFill feeds one execution into the reconstruction. The conversion
// rate and contract multiplier scale profits into account currency.
func (b *Builder) ProcessFill(fill domain.Fill, conversionRate, multiplier float64) {
	if fill.Quantity == 0 {
		return
	}
	if multiplier == 0 {
		multiplier = 1
	}

	// only the first fill of an order carries the order's fee
	orderFee := 0.0
	if b.feeCache.tryAdd(fill.OrderID) {
		orderFee = fill.Fee
	}

	b.strategy.processFill(b, fill, orderFee, conversionRate, multiplier)
}

// HasOpenPosition reports whether the symbol still has unmatched exposure
func (b *Builder) HasOpenPosition(symbol domain.Symbol) bool {
	_, ok := b.positions[symbol]
	return ok
}

// OpenQuantity returns the signed sum of the symbol's still-open lots or
// buffered fills. It always equals the net externally-observed position.
func (b *Builder) OpenQuantity(symbol domain.Symbol) float64 {
	pos, ok := b.positions[symbol]
	if !ok {
		return 0
	}
	return pos.netQuantity()
}

// ClosedTrades returns the closed-trade log ordered by close time
func (b *Builder) ClosedTrades() []Trade {
	out := make([]Trade, len(b.closed))
	copy(out, b.closed)
	return out
}

// ClosedTradeCount returns the length of the closed-trade log
func (b *Builder) ClosedTradeCount() int {
	return len(b.closed)
}

func (b *Builder) addClosedTrade(trade Trade) {
	b.closed = append(b.closed, trade)

	b.log.Debug().
		Str("symbol", trade.Symbol.Value).
		Str("direction", trade.Direction.String()).
		Float64("quantity", trade.Quantity).
		Float64("profit_loss", trade.ProfitLoss).
		Msg("Trade closed")

	if b.onClosed != nil {
		b.onClosed(trade)
	}

	if b.cfg.LiveMode {
		cutoff := trade.ExitTime.Add(-b.cfg.MaxTradeAge)
		for len(b.closed) > 0 &&
			(len(b.closed) > b.cfg.MaxTradeCount || b.closed[0].ExitTime.Before(cutoff)) {
			b.closed = b.closed[1:]
		}
	}
}

// position is the per-symbol open exposure being reconstructed: either a
// queue of open lots (fill-to-fill) or a queue of unmatched raw fills (flat
// modes), plus the price range observed since the position opened and fees
// not yet attributed to a closed trade.
type position struct {
	lots         []*lot
	pendingFills []domain.Fill

	totalFees float64
	minPrice  float64
	maxPrice  float64
}

// lot is an open single-direction slice of exposure awaiting an opposing
// fill.
type lot struct {
	EntryTime  time.Time
	EntryPrice float64
	Direction  TradeDirection
	Quantity   float64
	Fees       float64
}

func newPosition(price float64) *position {
	return &position{minPrice: price, maxPrice: price}
}

func (p *position) updateRange(price float64) {
	if price < p.minPrice {
		p.minPrice = price
	}
	if price > p.maxPrice {
		p.maxPrice = price
	}
}

func (p *position) resetRange(price float64) {
	p.minPrice = price
	p.maxPrice = price
}

func (p *position) netQuantity() float64 {
	net := 0.0
	for _, l := range p.lots {
		net += l.Direction.sign() * l.Quantity
	}
	for _, f := range p.pendingFills {
		net += f.Quantity
	}
	return net
}

// maeMFE values the worst and best price excursion against an entry price,
// in account currency. MAE is never positive, MFE never negative.
func (p *position) maeMFE(direction TradeDirection, entryPrice, quantity, conversionRate, multiplier float64) (mae, mfe float64) {
	scale := quantity * multiplier * conversionRate
	if direction == TradeDirectionLong {
		mae = round2((p.minPrice - entryPrice) * scale)
		mfe = round2((p.maxPrice - entryPrice) * scale)
	} else {
		mae = round2((p.maxPrice - entryPrice) * -scale)
		mfe = round2((p.minPrice - entryPrice) * -scale)
	}
	mae = math.Min(mae, 0)
	mfe = math.Max(mfe, 0)
	return mae, mfe
}

// orderFeeCache is a bounded recency set of order ids whose fee has already
// been charged, so an order filling in several pieces is charged once.
type orderFeeCache struct {
	capacity int
	seen     map[string]struct{}
	order    []string
}

func newOrderFeeCache(capacity int) *orderFeeCache {
	return &orderFeeCache{
		capacity: capacity,
		seen:     map[string]struct{}{},
	}
}

// tryAdd returns true when the order id has not been seen before
func (c *orderFeeCache) tryAdd(orderID string) bool {
	if orderID == "" {
		return true
	}
	if _, ok := c.seen[orderID]; ok {
		return false
	}

	c.seen[orderID] = struct{}{}
	c.order = append(c.order, orderID)
	for len(c.order) > c.capacity {
		delete(c.seen, c.order[0])
		c.order = c.order[1:]
	}
	return true
}
