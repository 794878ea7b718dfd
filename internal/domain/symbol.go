package domain

import "fmt"

// SecurityType classifies the kind of instrument a symbol refers to.
type SecurityType int

const (
	SecurityTypeEquity SecurityType = iota
	SecurityTypeForex
	SecurityTypeCfd
	SecurityTypeCrypto
	SecurityTypeFuture
)

// String returns the security type name
func (st SecurityType) String() string {
	switch st {
	case SecurityTypeEquity:
		return "Equity"
	case SecurityTypeForex:
		return "Forex"
	case SecurityTypeCfd:
		return "Cfd"
	case SecurityTypeCrypto:
		return "Crypto"
	case SecurityTypeFuture:
		return "Future"
	default:
		return fmt.Sprintf("SecurityType(%d)", int(st))
	}
}

// IsCurrencyPair reports whether fills for this type settle as a two-leg
// currency swap (base leg plus quote leg).
func (st SecurityType) IsCurrencyPair() bool {
	return st == SecurityTypeForex || st == SecurityTypeCfd || st == SecurityTypeCrypto
}

// Resolution is the bar period of a data subscription. Values are ordered
// from finest to coarsest so the minimum across subscriptions is meaningful.
type Resolution int

const (
	ResolutionTick Resolution = iota
	ResolutionSecond
	ResolutionMinute
	ResolutionHour
	ResolutionDaily
)

// String returns the resolution name
func (r Resolution) String() string {
	switch r {
	case ResolutionTick:
		return "Tick"
	case ResolutionSecond:
		return "Second"
	case ResolutionMinute:
		return "Minute"
	case ResolutionHour:
		return "Hour"
	case ResolutionDaily:
		return "Daily"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// Symbol identifies one instrument. It is a value type so it can be used
// directly as a map key; all symbol-keyed state in the engine is indexed by it.
type Symbol struct {
	Value        string
	SecurityType SecurityType
	Market       string
}

// NewSymbol creates a symbol for the given market and security type
func NewSymbol(value string, st SecurityType, market string) Symbol {
	return Symbol{Value: value, SecurityType: st, Market: market}
}

// IsEmpty reports whether the symbol carries no value
func (s Symbol) IsEmpty() bool {
	return s.Value == ""
}

// String returns the ticker value
func (s Symbol) String() string {
	return s.Value
}
