package cashbook

import (
	"sync"
	"time"
)

// UnsettledCashAmount is a cash delta waiting for its settlement date
type UnsettledCashAmount struct {
	SettlementTimeUTC time.Time `json:"settlement_time_utc"`
	CurrencyCode      string    `json:"currency_code"`
	Amount            float64   `json:"amount"`
}

// UnsettledCashBook queues cash amounts until they settle. Fill processing
// appends entries while a clock-driven sweep scans for matured ones, so the
// queue carries its own lock.
type UnsettledCashBook struct {
	mu      sync.Mutex
	pending []UnsettledCashAmount
}

// NewUnsettledCashBook creates an empty unsettled queue
func NewUnsettledCashBook() *UnsettledCashBook {
	return &UnsettledCashBook{}
}

// Add queues an amount for future settlement
func (u *UnsettledCashBook) Add(amount UnsettledCashAmount) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = append(u.pending, amount)
}

// TotalValueInAccountCurrency values the queued amounts using the conversion
// rates currently known to the cash book. Unknown currencies value at zero.
func (u *UnsettledCashBook) TotalValueInAccountCurrency(book *CashBook) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	total := 0.0
	for _, item := range u.pending {
		if cash, ok := book.Get(item.CurrencyCode); ok {
			total += item.Amount * cash.ConversionRate()
		}
	}
	return total
}

// Len returns the number of queued amounts
func (u *UnsettledCashBook) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// Scan moves every amount whose settlement time has passed into the cash
// book. It works on a snapshot taken under the lock and never reports an
// error: a currency unknown to the book is created with an undefined rate so
// the funds are not dropped.
func (u *UnsettledCashBook) Scan(nowUTC time.Time, book *CashBook) int {
	u.mu.Lock()
	var matured []UnsettledCashAmount
	remaining := u.pending[:0]
	for _, item := range u.pending {
		if !item.SettlementTimeUTC.After(nowUTC) {
			matured = append(matured, item)
		} else {
			remaining = append(remaining, item)
		}
	}
	u.pending = remaining
	u.mu.Unlock()

	for _, item := range matured {
		cash, err := book.Ensure(item.CurrencyCode)
		if err != nil {
			continue
		}
		cash.AddAmount(item.Amount)
	}
	return len(matured)
}
