package securities

import (
	"fmt"
	"strings"

	"github.com/aristath/tradeledger/internal/domain"
)

// MarketHours is the slice of exchange-calendar data the accounting engine
// needs when it synthesizes a subscription: the time zones the feed's data
// and the exchange itself live in. Session computation stays with the host.
type MarketHours struct {
	DataTimeZone     string `json:"data_time_zone"`
	ExchangeTimeZone string `json:"exchange_time_zone"`
}

// MarketHoursProvider resolves calendar data for a symbol
type MarketHoursProvider interface {
	Get(market, symbol string, securityType domain.SecurityType) (MarketHours, error)
}

// MarketHoursDatabase is an in-memory MarketHoursProvider with "*" symbol
// entries acting as market defaults.
type MarketHoursDatabase struct {
	entries map[propertiesKey]MarketHours
}

// NewMarketHoursDatabase creates an empty market hours database
func NewMarketHoursDatabase() *MarketHoursDatabase {
	return &MarketHoursDatabase{entries: map[propertiesKey]MarketHours{}}
}

// Set registers calendar data for a symbol; use symbol "*" for a market default
func (db *MarketHoursDatabase) Set(market, symbol string, securityType domain.SecurityType, hours MarketHours) {
	key := propertiesKey{
		market:       strings.ToLower(market),
		symbol:       strings.ToUpper(symbol),
		securityType: securityType,
	}
	db.entries[key] = hours
}

// Get resolves calendar data, falling back to the market default
func (db *MarketHoursDatabase) Get(market, symbol string, securityType domain.SecurityType) (MarketHours, error) {
	key := propertiesKey{
		market:       strings.ToLower(market),
		symbol:       strings.ToUpper(symbol),
		securityType: securityType,
	}
	if hours, ok := db.entries[key]; ok {
		return hours, nil
	}

	key.symbol = "*"
	if hours, ok := db.entries[key]; ok {
		return hours, nil
	}

	return MarketHours{}, fmt.Errorf("no market hours for %s/%s (%s) and no market default", market, symbol, securityType)
}
