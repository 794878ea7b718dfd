package cashbook

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aristath/tradeledger/internal/domain"
)

// Cash is the balance held in one currency together with the rate that
// converts it into the account currency.
//
// The amount is the only field touched from two threads at once (the fill
// thread mutates it while the algorithm thread reads portfolio totals), so it
// sits behind its own mutex. The conversion rate and feed binding are only
// written from the data thread.
type Cash struct {
	CurrencyCode string

	mu     sync.Mutex
	amount float64

	conversionRate float64
	isBaseCurrency bool

	// feed binding established by the currency-feed resolver
	ConversionSymbol domain.Symbol
	invertRate       bool
}

// NewCash creates a cash entry. The currency code must be exactly three
// letters; anything else is a caller error.
func NewCash(currencyCode string, amount, conversionRate float64) (*Cash, error) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if len(code) != 3 {
		return nil, fmt.Errorf("invalid currency code %q: must be exactly 3 characters", currencyCode)
	}

	return &Cash{
		CurrencyCode:   code,
		amount:         amount,
		conversionRate: conversionRate,
	}, nil
}

// Amount returns the current balance in this currency
func (c *Cash) Amount() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.amount
}

// AddAmount adds a (signed) amount to the balance
func (c *Cash) AddAmount(amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amount += amount
}

// SetAmount replaces the balance
func (c *Cash) SetAmount(amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amount = amount
}

// ConversionRate returns the multiplier into the account currency
func (c *Cash) ConversionRate() float64 {
	return c.conversionRate
}

// SetConversionRate overrides the conversion rate directly, for currencies
// whose rate is maintained by the host rather than a bound feed.
func (c *Cash) SetConversionRate(rate float64) {
	c.conversionRate = rate
}

// ValueInAccountCurrency converts the balance into the account currency
func (c *Cash) ValueInAccountCurrency() float64 {
	return c.Amount() * c.conversionRate
}

// MarkAsBaseCurrency pins this cash as the account currency: rate 1, no feed.
func (c *Cash) MarkAsBaseCurrency() {
	c.isBaseCurrency = true
	c.conversionRate = 1
	c.ConversionSymbol = domain.Symbol{}
	c.invertRate = false
}

// IsBaseCurrency reports whether this is the account currency
func (c *Cash) IsBaseCurrency() bool {
	return c.isBaseCurrency
}

// BindConversionFeed binds this cash to a currency-pair subscription. When
// invert is set the pair quotes the account currency per unit of this
// currency's counterpart, so updates apply the reciprocal.
func (c *Cash) BindConversionFeed(symbol domain.Symbol, invert bool) {
	c.ConversionSymbol = symbol
	c.invertRate = invert
}

// Update applies a price tick from the bound conversion feed. Base-currency
// cash ignores ticks entirely.
func (c *Cash) Update(price float64) {
	if c.isBaseCurrency {
		return
	}
	if c.invertRate && price != 0 {
		price = 1 / price
	}
	c.conversionRate = price
}
