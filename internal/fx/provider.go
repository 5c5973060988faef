package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when no rate exists for a currency code.
var ErrUnknownCurrency = errors.New("unknown currency")

const (
	ratesKey = "rates"

	// DefaultRefresh is how long fetched rates stay cached.
	DefaultRefresh = time.Hour
	// DefaultTimeout bounds a single rate fetch.
	DefaultTimeout = 5 * time.Second

	// failureBackoff is how long the fallback table is served after a failed
	// fetch before trying the endpoint again.
	failureBackoff = 5 * time.Minute
)

// aliases maps ISO codes returned by rate feeds to the codes used in the
// ledger.
var aliases = map[string]string{
	"CNY": "RMB",
}

// DefaultRates returns the fallback table used when no live rates are
// available. Rates are units of currency per USD.
func DefaultRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"RMB": decimal.RequireFromString("6.91"),
		"VND": decimal.NewFromInt(26000),
		"HKD": decimal.RequireFromString("7.82"),
		"IDR": decimal.NewFromInt(16848),
	}
}

// Provider fetches exchange rates from an HTTP endpoint and caches them.
// Any failure falls back to the default table, so Rates never fails.
type Provider struct {
	url      string
	client   *http.Client
	defaults map[string]decimal.Decimal
	cache    *cache.Cache
	refresh  time.Duration
	logger   *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient overrides the HTTP client used for fetching.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.client = c }
}

// WithDefaults overrides the fallback rate table.
func WithDefaults(rates map[string]decimal.Decimal) ProviderOption {
	return func(p *Provider) { p.defaults = rates }
}

// WithRefresh sets how long fetched rates stay cached.
func WithRefresh(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.refresh = d
		}
	}
}

// WithTimeout bounds a single fetch.
func WithTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.client = &http.Client{Timeout: d, Transport: p.client.Transport}
		}
	}
}

// WithLogger sets the logger used to report fetch failures.
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a Provider for url. An empty url disables fetching and
// serves the defaults only.
func NewProvider(url string, opts ...ProviderOption) *Provider {
	p := &Provider{
		url:      url,
		client:   &http.Client{Timeout: DefaultTimeout},
		defaults: DefaultRates(),
		refresh:  DefaultRefresh,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = cache.New(p.refresh, 2*p.refresh)
	return p
}

// Rates returns the current rate table, fetching it when the cached copy has
// expired.
func (p *Provider) Rates(ctx context.Context) map[string]decimal.Decimal {
	if v, ok := p.cache.Get(ratesKey); ok {
		return copyRates(v.(map[string]decimal.Decimal))
	}
	if p.url == "" {
		return copyRates(p.defaults)
	}

	rates, err := p.fetch(ctx)
	if err != nil {
		p.logger.Warn("exchange rate fetch failed, using defaults", "url", p.url, "error", err)
		p.cache.Set(ratesKey, copyRates(p.defaults), min(failureBackoff, p.refresh))
		return copyRates(p.defaults)
	}

	// Keep currencies the feed does not quote.
	for code, r := range p.defaults {
		if _, ok := rates[code]; !ok {
			rates[code] = r
		}
	}
	p.cache.Set(ratesKey, rates, cache.DefaultExpiration)
	p.logger.Debug("exchange rates refreshed", "currencies", len(rates))
	return copyRates(rates)
}

// Rate returns the rate for one currency code.
func (p *Provider) Rate(ctx context.Context, code string) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	r, ok := p.Rates(ctx)[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return r, nil
}

// Invalidate drops the cached rates so the next call fetches again.
func (p *Provider) Invalidate() {
	p.cache.Delete(ratesKey)
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (p *Provider) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rate endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("rate response contained no rates")
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, v := range payload.Rates {
		if v <= 0 {
			continue
		}
		code = strings.ToUpper(code)
		if alias, ok := aliases[code]; ok {
			code = alias
		}
		rates[code] = decimal.NewFromFloat(v)
	}
	return rates, nil
}

func copyRates(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
