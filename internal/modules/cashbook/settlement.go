package cashbook

import "time"

// SettlementModel decides when a fill's cash impact reaches the settled book
type SettlementModel interface {
	ApplyFunds(book *CashBook, unsettled *UnsettledCashBook, utcTime time.Time, currencyCode string, amount float64) error
}

// ImmediateSettlementModel credits every amount straight into the cash book
type ImmediateSettlementModel struct{}

// ApplyFunds adds the amount to the settled balance right away
func (ImmediateSettlementModel) ApplyFunds(book *CashBook, _ *UnsettledCashBook, _ time.Time, currencyCode string, amount float64) error {
	cash, err := book.Ensure(currencyCode)
	if err != nil {
		return err
	}
	cash.AddAmount(amount)
	return nil
}

// DelayedSettlementModel settles sale proceeds a number of days after the
// trade, at a fixed time of day. Debits settle immediately: funds spent are
// gone at once, only incoming proceeds wait.
type DelayedSettlementModel struct {
	Days      int
	TimeOfDay time.Duration
}

// ApplyFunds queues positive amounts until T+Days and debits negative ones
// immediately.
func (m DelayedSettlementModel) ApplyFunds(book *CashBook, unsettled *UnsettledCashBook, utcTime time.Time, currencyCode string, amount float64) error {
	if amount <= 0 {
		return ImmediateSettlementModel{}.ApplyFunds(book, unsettled, utcTime, currencyCode, amount)
	}

	day := utcTime.UTC().Truncate(24 * time.Hour)
	settlement := day.AddDate(0, 0, m.Days).Add(m.TimeOfDay)

	unsettled.Add(UnsettledCashAmount{
		SettlementTimeUTC: settlement,
		CurrencyCode:      currencyCode,
		Amount:            amount,
	})
	return nil
}
