package securities

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/domain"
	"github.com/aristath/tradeledger/internal/events"
	"github.com/aristath/tradeledger/internal/modules/cashbook"
)

// currencyPairTypes are the security types tried, in order, when a
// conversion pair has to be synthesized.
var currencyPairTypes = []domain.SecurityType{
	domain.SecurityTypeForex,
	domain.SecurityTypeCfd,
	domain.SecurityTypeCrypto,
}

// CurrencyFeedResolver makes sure every non-account currency in a cash book
// has a market-data feed to keep its conversion rate current, synthesizing an
// internal subscription when none of the existing ones can serve.
type CurrencyFeedResolver struct {
	hours     MarketHoursProvider
	props     SymbolPropertiesProvider
	marketMap map[domain.SecurityType]string
	events    *events.Manager
	log       zerolog.Logger
}

// NewCurrencyFeedResolver creates a resolver over the given lookup boundaries
func NewCurrencyFeedResolver(hours MarketHoursProvider, props SymbolPropertiesProvider, marketMap map[domain.SecurityType]string, log zerolog.Logger) *CurrencyFeedResolver {
	return &CurrencyFeedResolver{
		hours:     hours,
		props:     props,
		marketMap: marketMap,
		log:       log.With().Str("service", "currency_feeds").Logger(),
	}
}

// SetEvents wires the event manager; without one, synthesized feeds are only
// logged.
func (r *CurrencyFeedResolver) SetEvents(ev *events.Manager) {
	r.events = ev
}

// EnsureCurrencyDataFeed binds the cash entry to a conversion feed. It
// returns the newly created security when a feed had to be synthesized, nil
// when an existing subscription (or the base currency itself) covers it, and
// an error when no currency pair can be constructed at all — that is a fatal
// configuration problem, not something to retry.
func (r *CurrencyFeedResolver) EnsureCurrencyDataFeed(
	cash *cashbook.Cash,
	book *cashbook.CashBook,
	universe *SecurityManager,
	subscriptions *SubscriptionManager,
) (*Security, error) {
	if cash.CurrencyCode == book.AccountCurrency() {
		cash.MarkAsBaseCurrency()
		return nil, nil
	}

	normal := cash.CurrencyCode + book.AccountCurrency()
	inverted := book.AccountCurrency() + cash.CurrencyCode

	// an existing currency-pair subscription may already carry the rate
	for _, sub := range subscriptions.Subscriptions() {
		if !sub.Symbol.SecurityType.IsCurrencyPair() {
			continue
		}
		switch sub.Symbol.Value {
		case normal:
			cash.BindConversionFeed(sub.Symbol, false)
			r.log.Debug().Str("currency", cash.CurrencyCode).Str("symbol", sub.Symbol.Value).Msg("Bound to existing conversion feed")
			return nil, nil
		case inverted:
			cash.BindConversionFeed(sub.Symbol, true)
			r.log.Debug().Str("currency", cash.CurrencyCode).Str("symbol", sub.Symbol.Value).Msg("Bound to existing inverted conversion feed")
			return nil, nil
		}
	}

	minResolution, ok := subscriptions.MinimumResolution()
	if !ok {
		return nil, fmt.Errorf("unable to add conversion feed for %s: no subscriptions exist to infer a resolution from", cash.CurrencyCode)
	}

	for _, securityType := range currencyPairTypes {
		market, ok := r.marketMap[securityType]
		if !ok {
			continue
		}

		for _, candidate := range []struct {
			pair   string
			invert bool
		}{{normal, false}, {inverted, true}} {
			props, err := r.props.Get(market, candidate.pair, securityType)
			if err != nil {
				continue
			}

			symbol := domain.NewSymbol(candidate.pair, securityType, market)

			hours, err := r.hours.Get(market, candidate.pair, securityType)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve market hours for conversion pair %s: %w", candidate.pair, err)
			}

			quoteCash, err := book.Ensure(props.QuoteCurrency)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve quote currency for conversion pair %s: %w", candidate.pair, err)
			}

			sub := subscriptions.Add(symbol, minResolution, hours.DataTimeZone, hours.ExchangeTimeZone, true)

			security := NewSecurity(symbol, props, quoteCash)
			security.IsInternal = true
			security.Subscription = sub
			if err := universe.Add(security); err != nil {
				return nil, fmt.Errorf("failed to register conversion security %s: %w", candidate.pair, err)
			}

			cash.BindConversionFeed(symbol, candidate.invert)
			if r.events != nil {
				r.events.Emit(events.ConversionFeedAdded, "securities", map[string]interface{}{
					"currency": cash.CurrencyCode,
					"symbol":   symbol.Value,
					"inverted": candidate.invert,
				})
			}
			r.log.Info().
				Str("currency", cash.CurrencyCode).
				Str("symbol", symbol.Value).
				Str("resolution", minResolution.String()).
				Bool("inverted", candidate.invert).
				Msg("Added internal conversion feed")
			return security, nil
		}
	}

	return nil, fmt.Errorf("no currency pair available to convert %s into %s", cash.CurrencyCode, book.AccountCurrency())
}

// EnsureAll resolves a conversion feed for every currency in the book
func (r *CurrencyFeedResolver) EnsureAll(
	book *cashbook.CashBook,
	universe *SecurityManager,
	subscriptions *SubscriptionManager,
) ([]*Security, error) {
	var added []*Security
	for _, cash := range book.Currencies() {
		security, err := r.EnsureCurrencyDataFeed(cash, book, universe, subscriptions)
		if err != nil {
			return added, err
		}
		if security != nil {
			added = append(added, security)
		}
	}
	return added, nil
}
