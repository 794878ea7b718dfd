package securities

import (
	"github.com/aristath/tradeledger/internal/domain"
)

// SubscriptionConfig describes one market-data subscription held by the
// engine.
type SubscriptionConfig struct {
	Symbol           domain.Symbol     `json:"symbol"`
	Resolution       domain.Resolution `json:"resolution"`
	DataTimeZone     string            `json:"data_time_zone"`
	ExchangeTimeZone string            `json:"exchange_time_zone"`

	// IsInternal marks subscriptions the engine requested for itself,
	// invisible to the user's algorithm.
	IsInternal bool `json:"is_internal"`
}

// SubscriptionManager tracks the data subscriptions in use. The accounting
// engine only consults it when resolving currency conversion feeds; the host
// engine owns the actual data plumbing.
type SubscriptionManager struct {
	subscriptions []*SubscriptionConfig
}

// NewSubscriptionManager creates an empty subscription list
func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{}
}

// Add registers a subscription and returns its config handle
func (m *SubscriptionManager) Add(symbol domain.Symbol, resolution domain.Resolution, dataTimeZone, exchangeTimeZone string, isInternal bool) *SubscriptionConfig {
	cfg := &SubscriptionConfig{
		Symbol:           symbol,
		Resolution:       resolution,
		DataTimeZone:     dataTimeZone,
		ExchangeTimeZone: exchangeTimeZone,
		IsInternal:       isInternal,
	}
	m.subscriptions = append(m.subscriptions, cfg)
	return cfg
}

// Subscriptions returns the registered configs in insertion order
func (m *SubscriptionManager) Subscriptions() []*SubscriptionConfig {
	return m.subscriptions
}

// MinimumResolution returns the finest resolution currently subscribed. The
// second return is false when no subscriptions exist yet.
func (m *SubscriptionManager) MinimumResolution() (domain.Resolution, bool) {
	if len(m.subscriptions) == 0 {
		return 0, false
	}
	min := m.subscriptions[0].Resolution
	for _, sub := range m.subscriptions[1:] {
		if sub.Resolution < min {
			min = sub.Resolution
		}
	}
	return min, true
}
