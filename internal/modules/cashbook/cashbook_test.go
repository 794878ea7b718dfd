package cashbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCashBookSeedsAccountCurrency(t *testing.T) {
	book, err := NewCashBook("usd")
	require.NoError(t, err)

	assert.Equal(t, "USD", book.AccountCurrency())

	base := book.AccountCurrencyCash()
	require.NotNil(t, base)
	assert.True(t, base.IsBaseCurrency())
	assert.Equal(t, 1.0, base.ConversionRate())
	assert.Equal(t, 0.0, base.Amount())
}

func TestCashBookAddReplacesAmount(t *testing.T) {
	book, err := NewCashBook("USD")
	require.NoError(t, err)

	first, err := book.Add("EUR", 100, 1.1)
	require.NoError(t, err)

	second, err := book.Add("EUR", 250, 1.2)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 250.0, second.Amount())
	assert.Equal(t, 1.2, second.ConversionRate())
	assert.Equal(t, 2, book.Len())
}

func TestCashBookEnsure(t *testing.T) {
	book, err := NewCashBook("USD")
	require.NoError(t, err)

	cash, err := book.Ensure("JPY")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cash.Amount())
	assert.Equal(t, 0.0, cash.ConversionRate())

	cash.AddAmount(500)

	again, err := book.Ensure("JPY")
	require.NoError(t, err)
	assert.Same(t, cash, again)
	assert.Equal(t, 500.0, again.Amount())
}

func TestCashBookTotalValueInAccountCurrency(t *testing.T) {
	book, err := NewCashBook("USD")
	require.NoError(t, err)

	book.AccountCurrencyCash().AddAmount(100)
	_, err = book.Add("EUR", 10, 1.1)
	require.NoError(t, err)

	assert.InDelta(t, 111, book.TotalValueInAccountCurrency(), 1e-9)
}

func TestCashBookCurrenciesSorted(t *testing.T) {
	book, err := NewCashBook("USD")
	require.NoError(t, err)

	_, err = book.Add("JPY", 0, 0)
	require.NoError(t, err)
	_, err = book.Add("EUR", 0, 0)
	require.NoError(t, err)

	var codes []string
	for _, cash := range book.Currencies() {
		codes = append(codes, cash.CurrencyCode)
	}
	assert.Equal(t, []string{"EUR", "JPY", "USD"}, codes)
}
