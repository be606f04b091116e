// Package finnhub adapts the Finnhub REST API into the canonical profile,
// quote, financials, and earnings shapes. All policy an adapter owes the
// aggregator lives here: cache-first reads, limiter checks, cooldown after a
// provider-reported rate limit, and mapping of provider error signals into
// the shared taxonomy.
package finnhub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cast"
	"resty.dev/v3"

	"github.com/carsongrett/nocharts/internal/cache"
	"github.com/carsongrett/nocharts/internal/enrich"
	"github.com/carsongrett/nocharts/internal/provider"
	"github.com/carsongrett/nocharts/internal/ratelimit"
	"github.com/carsongrett/nocharts/internal/stock"
)

// metricFields translates Finnhub's metric-bundle field names into the
// canonical financials fields. The wire names match no display label, so the
// translation table is part of this adapter's contract.
var metricFields = map[string]string{
	"peBasicExclExtraTTM":     "pe_ratio",
	"currentDividendYieldTTM": "dividend_yield",
	"pbAnnual":                "price_to_book",
	"beta":                    "beta",
	"netProfitMarginTTM":      "net_margin",
	"currentRatioAnnual":      "current_ratio",
	"revenueGrowthTTMYoy":     "revenue_growth",
	"52WeekHigh":              "high_52_week",
	"52WeekLow":               "low_52_week",
}

// Client fetches company data from Finnhub.
type Client struct {
	apiKey    string
	client    *resty.Client
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	cooldowns *ratelimit.Cooldowns
	cacheTTL  time.Duration
}

// New creates a Finnhub adapter. The cache, limiter, and cooldown tracker are
// shared services owned by the caller.
func New(apiKey, baseURL string, c *cache.Cache, l *ratelimit.Limiter, cd *ratelimit.Cooldowns, cacheTTL time.Duration) *Client {
	return &Client{
		apiKey:    apiKey,
		client:    provider.NewHTTPClient(baseURL),
		cache:     c,
		limiter:   l,
		cooldowns: cd,
		cacheTTL:  cacheTTL,
	}
}

// cacheKey scopes cached values by provider, operation, and symbol.
func cacheKey(op, symbol string) string {
	return fmt.Sprintf("finnhub:%s:%s", op, symbol)
}

// cooldownKey scopes backoff by provider and operation only, so one overload
// signal suppresses the operation regardless of request parameters.
func cooldownKey(op string) string {
	return fmt.Sprintf("finnhub:%s", op)
}

// guard applies the pre-flight policy shared by every operation: cooldown
// first, then the global limiter.
func (c *Client) guard(op string) error {
	if c.cooldowns.Active(cooldownKey(op)) {
		return provider.NewRateLimitError(fmt.Sprintf("finnhub %s is cooling down", op))
	}
	if !c.limiter.Allow() {
		return provider.NewRateLimitError("request budget exhausted for this window")
	}
	return nil
}

// classify resolves a settled HTTP exchange into a provider error, starting a
// cooldown when the provider itself reported overload. Returns nil for a
// success status.
func (c *Client) classify(op string, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == 429 {
		c.cooldowns.Start(cooldownKey(op), ratelimit.DefaultCooldown)
		slog.Debug("finnhub reported rate limit, starting cooldown", "operation", op)
	}
	return provider.ClassifyHTTPStatus(resp.StatusCode(), resp.String())
}

type profileResponse struct {
	Error                string  `json:"error"`
	Ticker               string  `json:"ticker"`
	Name                 string  `json:"name"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	Exchange             string  `json:"exchange"`
	Currency             string  `json:"currency"`
	WebURL               string  `json:"weburl"`
	Logo                 string  `json:"logo"`
	IPO                  string  `json:"ipo"`
	MarketCapitalization float64 `json:"marketCapitalization"` // millions
}

// Profile retrieves company identity data for symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*stock.Profile, error) {
	key := cacheKey("profile", symbol)
	if v, ok := c.cache.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		return v.(*stock.Profile), nil
	}
	if err := c.guard("profile"); err != nil {
		return nil, err
	}

	var result profileResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  c.apiKey,
		}).
		SetResult(&result).
		Get("/stock/profile2")

	if err != nil {
		return nil, provider.WrapTransportError(err)
	}
	if err := c.classify("profile", resp); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, provider.NewUpstreamError(resp.StatusCode(), result.Error)
	}
	if result.Name == "" && result.Ticker == "" {
		return nil, provider.NewNoDataError(fmt.Sprintf("no profile data for %s", symbol))
	}

	p := &stock.Profile{
		Symbol:    symbol,
		Name:      result.Name,
		Industry:  result.FinnhubIndustry,
		Exchange:  result.Exchange,
		Currency:  result.Currency,
		WebURL:    result.WebURL,
		LogoURL:   result.Logo,
		IPODate:   result.IPO,
		MarketCap: enrich.MarketCapFromMillions(result.MarketCapitalization),
	}
	c.cache.Set(key, p, c.cacheTTL)
	return p, nil
}

type quoteResponse struct {
	Error         string  `json:"error"`
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

// Quote retrieves session pricing for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*stock.Quote, error) {
	key := cacheKey("quote", symbol)
	if v, ok := c.cache.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		return v.(*stock.Quote), nil
	}
	if err := c.guard("quote"); err != nil {
		return nil, err
	}

	var result quoteResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  c.apiKey,
		}).
		SetResult(&result).
		Get("/quote")

	if err != nil {
		return nil, provider.WrapTransportError(err)
	}
	if err := c.classify("quote", resp); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, provider.NewUpstreamError(resp.StatusCode(), result.Error)
	}
	// Finnhub returns an all-zero quote for unknown symbols.
	if result.Current == 0 && result.PreviousClose == 0 {
		return nil, provider.NewNoDataError(fmt.Sprintf("no quote data for %s", symbol))
	}

	q := &stock.Quote{
		Current:       result.Current,
		Change:        result.Change,
		ChangePercent: result.ChangePercent,
		High:          result.High,
		Low:           result.Low,
		Open:          result.Open,
		PreviousClose: result.PreviousClose,
	}
	fillQuoteChange(q)
	c.cache.Set(key, q, c.cacheTTL)
	return q, nil
}

// fillQuoteChange derives the absolute or percent change when the provider
// omitted one of them.
func fillQuoteChange(q *stock.Quote) {
	if q.Change == 0 && q.PreviousClose != 0 && q.Current != q.PreviousClose {
		q.Change = q.Current - q.PreviousClose
	}
	if q.ChangePercent == 0 && q.PreviousClose != 0 && q.Change != 0 {
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}
}

type metricsResponse struct {
	Error  string         `json:"error"`
	Metric map[string]any `json:"metric"`
}

// Financials retrieves the basic financial metrics bundle for symbol.
func (c *Client) Financials(ctx context.Context, symbol string) (*stock.Financials, error) {
	key := cacheKey("financials", symbol)
	if v, ok := c.cache.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		return v.(*stock.Financials), nil
	}
	if err := c.guard("financials"); err != nil {
		return nil, err
	}

	var result metricsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"metric": "all",
			"token":  c.apiKey,
		}).
		SetResult(&result).
		Get("/stock/metric")

	if err != nil {
		return nil, provider.WrapTransportError(err)
	}
	if err := c.classify("financials", resp); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, provider.NewUpstreamError(resp.StatusCode(), result.Error)
	}
	if len(result.Metric) == 0 {
		return nil, provider.NewNoDataError(fmt.Sprintf("no financial metrics for %s", symbol))
	}

	f := mapMetrics(result.Metric)
	c.cache.Set(key, f, c.cacheTTL)
	return f, nil
}

// mapMetrics translates the wire metric bundle into canonical financials.
// Values arrive untyped and occasionally as strings; absent or unparseable
// metrics stay nil.
func mapMetrics(metric map[string]any) *stock.Financials {
	f := &stock.Financials{}
	for wire, canonical := range metricFields {
		raw, ok := metric[wire]
		if !ok || raw == nil {
			continue
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			continue
		}
		switch canonical {
		case "pe_ratio":
			f.PERatio = &v
		case "dividend_yield":
			f.DividendYield = &v
		case "price_to_book":
			f.PriceToBook = &v
		case "beta":
			f.Beta = &v
		case "net_margin":
			f.NetMargin = &v
		case "current_ratio":
			f.CurrentRatio = &v
		case "revenue_growth":
			f.RevenueGrowth = &v
		case "high_52_week":
			f.High52Week = &v
		case "low_52_week":
			f.Low52Week = &v
		}
	}
	return f
}

type earningsEntry struct {
	Period          string   `json:"period"`
	Quarter         int      `json:"quarter"`
	Year            int      `json:"year"`
	Estimate        *float64 `json:"estimate"`
	Actual          *float64 `json:"actual"`
	Surprise        *float64 `json:"surprise"`
	SurprisePercent *float64 `json:"surprisePercent"`
}

// Earnings retrieves past earnings reports for symbol, newest first.
func (c *Client) Earnings(ctx context.Context, symbol string) ([]stock.EarningsReport, error) {
	key := cacheKey("earnings", symbol)
	if v, ok := c.cache.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		return v.([]stock.EarningsReport), nil
	}
	if err := c.guard("earnings"); err != nil {
		return nil, err
	}

	var result []earningsEntry
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  c.apiKey,
		}).
		SetResult(&result).
		Get("/stock/earnings")

	if err != nil {
		return nil, provider.WrapTransportError(err)
	}
	if err := c.classify("earnings", resp); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, provider.NewNoDataError(fmt.Sprintf("no earnings history for %s", symbol))
	}

	reports := make([]stock.EarningsReport, 0, len(result))
	for _, e := range result {
		period, err := time.Parse("2006-01-02", e.Period)
		if err != nil {
			continue
		}
		reports = append(reports, stock.EarningsReport{
			Period:          period,
			Quarter:         e.Quarter,
			Year:            e.Year,
			EstimateEPS:     e.Estimate,
			ActualEPS:       e.Actual,
			Surprise:        e.Surprise,
			SurprisePercent: e.SurprisePercent,
		})
	}
	reports = enrich.NormalizeEarnings(reports)
	c.cache.Set(key, reports, c.cacheTTL)
	return reports, nil
}
