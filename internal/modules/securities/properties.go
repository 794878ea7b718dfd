package securities

import (
	"fmt"
	"strings"

	"github.com/aristath/tradeledger/internal/domain"
)

// SymbolProperties is the contract metadata a fill needs to be valued:
// which currency the price is quoted in and how many units of the underlying
// one contract represents.
type SymbolProperties struct {
	Description        string  `json:"description"`
	QuoteCurrency      string  `json:"quote_currency"`
	ContractMultiplier float64 `json:"contract_multiplier"`
}

// DefaultSymbolProperties returns equity-style metadata quoted in the given
// currency.
func DefaultSymbolProperties(quoteCurrency string) SymbolProperties {
	return SymbolProperties{
		QuoteCurrency:      strings.ToUpper(quoteCurrency),
		ContractMultiplier: 1,
	}
}

// SymbolPropertiesProvider resolves contract metadata for a symbol. Lookups
// are pure: the same key always yields the same result, and a missing entry
// with no applicable default is a fatal configuration error.
type SymbolPropertiesProvider interface {
	Get(market, symbol string, securityType domain.SecurityType) (SymbolProperties, error)
}

type propertiesKey struct {
	market       string
	symbol       string
	securityType domain.SecurityType
}

// SymbolPropertiesDatabase is an in-memory SymbolPropertiesProvider. A "*"
// symbol entry acts as the default for its market and security type.
type SymbolPropertiesDatabase struct {
	entries map[propertiesKey]SymbolProperties
}

// NewSymbolPropertiesDatabase creates an empty properties database
func NewSymbolPropertiesDatabase() *SymbolPropertiesDatabase {
	return &SymbolPropertiesDatabase{entries: map[propertiesKey]SymbolProperties{}}
}

// Set registers metadata for a symbol; use symbol "*" for a market default
func (db *SymbolPropertiesDatabase) Set(market, symbol string, securityType domain.SecurityType, props SymbolProperties) {
	key := propertiesKey{
		market:       strings.ToLower(market),
		symbol:       strings.ToUpper(symbol),
		securityType: securityType,
	}
	db.entries[key] = props
}

// Get resolves metadata for a symbol, falling back to the market default
func (db *SymbolPropertiesDatabase) Get(market, symbol string, securityType domain.SecurityType) (SymbolProperties, error) {
	key := propertiesKey{
		market:       strings.ToLower(market),
		symbol:       strings.ToUpper(symbol),
		securityType: securityType,
	}
	if props, ok := db.entries[key]; ok {
		return props, nil
	}

	key.symbol = "*"
	if props, ok := db.entries[key]; ok {
		return props, nil
	}

	return SymbolProperties{}, fmt.Errorf("no symbol properties for %s/%s (%s) and no market default", market, symbol, securityType)
}

// Has reports whether an entry or a market default exists for the symbol
func (db *SymbolPropertiesDatabase) Has(market, symbol string, securityType domain.SecurityType) bool {
	_, err := db.Get(market, symbol, securityType)
	return err == nil
}
