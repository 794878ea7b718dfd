package cashbook

import (
	"fmt"
	"sort"
	"strings"
)

// CashBook holds every currency balance of one portfolio, keyed by currency
// code. The account currency is always present with a conversion rate of 1.
//
// Apart from each entry's amount (guarded inside Cash) the book itself is
// mutated only from the fill thread; adding currencies concurrently is not
// supported and not needed.
type CashBook struct {
	accountCurrency string
	entries         map[string]*Cash
}

// NewCashBook creates a book seeded with the account currency at rate 1
func NewCashBook(accountCurrency string) (*CashBook, error) {
	base, err := NewCash(accountCurrency, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create account currency cash: %w", err)
	}
	base.MarkAsBaseCurrency()

	return &CashBook{
		accountCurrency: base.CurrencyCode,
		entries:         map[string]*Cash{base.CurrencyCode: base},
	}, nil
}

// AccountCurrency returns the book's base currency code
func (b *CashBook) AccountCurrency() string {
	return b.accountCurrency
}

// Add registers a new currency balance. Adding the account currency or an
// already-present currency replaces the amount but keeps the existing entry.
func (b *CashBook) Add(currencyCode string, amount, conversionRate float64) (*Cash, error) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if existing, ok := b.entries[code]; ok {
		existing.SetAmount(amount)
		return existing, nil
	}

	cash, err := NewCash(code, amount, conversionRate)
	if err != nil {
		return nil, err
	}
	b.entries[cash.CurrencyCode] = cash
	return cash, nil
}

// Get returns the cash entry for a currency code
func (b *CashBook) Get(currencyCode string) (*Cash, bool) {
	cash, ok := b.entries[strings.ToUpper(strings.TrimSpace(currencyCode))]
	return cash, ok
}

// Ensure returns the entry for the currency, creating a zero balance with an
// undefined (zero) conversion rate when the currency is new to the book.
func (b *CashBook) Ensure(currencyCode string) (*Cash, error) {
	if cash, ok := b.Get(currencyCode); ok {
		return cash, nil
	}
	return b.Add(currencyCode, 0, 0)
}

// AccountCurrencyCash returns the base-currency entry
func (b *CashBook) AccountCurrencyCash() *Cash {
	return b.entries[b.accountCurrency]
}

// TotalValueInAccountCurrency sums every balance converted into the account
// currency.
func (b *CashBook) TotalValueInAccountCurrency() float64 {
	total := 0.0
	for _, cash := range b.entries {
		total += cash.ValueInAccountCurrency()
	}
	return total
}

// Currencies returns the entries ordered by currency code
func (b *CashBook) Currencies() []*Cash {
	out := make([]*Cash, 0, len(b.entries))
	for _, cash := range b.entries {
		out = append(out, cash)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CurrencyCode < out[j].CurrencyCode
	})
	return out
}

// Len returns the number of currencies in the book
func (b *CashBook) Len() int {
	return len(b.entries)
}
