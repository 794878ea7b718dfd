package securities

import (
	"fmt"
	"sort"

	"github.com/aristath/tradeledger/internal/domain"
)

// SecurityManager owns the universe of securities known to one portfolio,
// keyed by symbol. All mutation goes through named operations; callers never
// touch the map directly.
type SecurityManager struct {
	securities map[domain.Symbol]*Security
}

// NewSecurityManager creates an empty universe
func NewSecurityManager() *SecurityManager {
	return &SecurityManager{securities: map[domain.Symbol]*Security{}}
}

// Add registers a security. Registering the same symbol twice is a caller
// error.
func (m *SecurityManager) Add(security *Security) error {
	if _, ok := m.securities[security.Symbol]; ok {
		return fmt.Errorf("security %s is already registered", security.Symbol)
	}
	m.securities[security.Symbol] = security
	return nil
}

// Get returns the security for a symbol
func (m *SecurityManager) Get(symbol domain.Symbol) (*Security, bool) {
	sec, ok := m.securities[symbol]
	return sec, ok
}

// Remove drops a security from the universe
func (m *SecurityManager) Remove(symbol domain.Symbol) {
	delete(m.securities, symbol)
}

// Len returns the number of registered securities
func (m *SecurityManager) Len() int {
	return len(m.securities)
}

// All returns the securities ordered by symbol value
func (m *SecurityManager) All() []*Security {
	out := make([]*Security, 0, len(m.securities))
	for _, sec := range m.securities {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol.Value < out[j].Symbol.Value
	})
	return out
}

// Tradable returns the non-internal securities ordered by symbol value
func (m *SecurityManager) Tradable() []*Security {
	out := make([]*Security, 0, len(m.securities))
	for _, sec := range m.securities {
		if !sec.IsInternal {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol.Value < out[j].Symbol.Value
	})
	return out
}
