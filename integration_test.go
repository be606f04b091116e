package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/carsongrett/nocharts/internal/aggregate"
	"github.com/carsongrett/nocharts/internal/cache"
	"github.com/carsongrett/nocharts/internal/finnhub"
	"github.com/carsongrett/nocharts/internal/newsapi"
	"github.com/carsongrett/nocharts/internal/provider"
	"github.com/carsongrett/nocharts/internal/ratelimit"
	"github.com/carsongrett/nocharts/internal/reddit"
	"github.com/carsongrett/nocharts/internal/stock"
	"github.com/carsongrett/nocharts/internal/token"
)

func newFinnhubServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/stock/profile2":
			w.Write([]byte(`{"ticker": "AAPL", "name": "Apple Inc", "finnhubIndustry": "Technology", "marketCapitalization": 3000000}`))
		case "/quote":
			w.Write([]byte(`{"c": 178.23, "d": 1.5, "dp": 0.85, "h": 180.1, "l": 176.9, "o": 177.0, "pc": 176.73}`))
		case "/stock/metric":
			w.Write([]byte(`{"metric": {"peBasicExclExtraTTM": 27.89, "beta": 1.28, "52WeekHigh": 199.62, "52WeekLow": 164.08}}`))
		case "/stock/earnings":
			w.Write([]byte(`[{"period": "2024-01-25", "quarter": 1, "year": 2024, "actual": 2.18, "estimate": 2.10, "surprisePercent": 3.81}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newNewsAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"totalResults": 1,
			"articles": [{
				"source": {"name": "Reuters"},
				"title": "Apple reports record earnings growth",
				"description": "Strong quarter across all segments.",
				"url": "https://example.com/apple-earnings",
				"publishedAt": "2024-05-30T14:00:00Z"
			}]
		}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newRedditServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"children": [{"data": {
			"title": "AAPL rally discussion",
			"selftext": "Shares surge after strong profit",
			"permalink": "/r/stocks/comments/abc/aapl/",
			"subreddit": "stocks",
			"author": "investor42",
			"created_utc": 1717070400,
			"ups": 100
		}}]}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

type stack struct {
	svc    *aggregate.Service
	tokens *token.Store
}

func newStack(t *testing.T, finnhubURL, newsURL, redditURL string, withToken bool) *stack {
	t.Helper()

	store := cache.New(5 * time.Minute)
	limiter := ratelimit.New(100)
	cooldowns := ratelimit.NewCooldowns()

	tokens := token.NewStore(afero.NewMemMapFs(), "/tokens/reddit.json")
	if withToken {
		if err := tokens.Save("integration-token", time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	market := finnhub.New("test_key", finnhubURL, store, limiter, cooldowns, 5*time.Minute)
	newsSources := []provider.NewsSource{
		reddit.New("nocharts-test/1.0", redditURL, tokens, store, limiter, cooldowns, 5*time.Minute),
		newsapi.New("test_key", newsURL, store, limiter, cooldowns, 5*time.Minute),
	}

	svc := aggregate.New(market, market, market, market, newsSources,
		aggregate.WithCallTimeout(5*time.Second))
	return &stack{svc: svc, tokens: tokens}
}

// TestIntegration_FullAggregation exercises the whole flow against mock
// servers for all three providers.
func TestIntegration_FullAggregation(t *testing.T) {
	fh := newFinnhubServer(t)
	na := newNewsAPIServer(t)
	rd := newRedditServer(t)

	s := newStack(t, fh.URL, na.URL, rd.URL, true)

	record, err := s.svc.Fetch(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if record.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", record.Symbol)
	}
	if record.Profile == nil || record.Profile.Name != "Apple Inc" {
		t.Fatalf("Profile = %+v", record.Profile)
	}
	if record.Profile.MarketCap != 3e12 {
		t.Errorf("MarketCap = %v, want 3e12", record.Profile.MarketCap)
	}
	if record.Quote == nil || record.Quote.Current != 178.23 {
		t.Errorf("Quote = %+v", record.Quote)
	}
	if record.Financials == nil || record.Financials.PERatio == nil {
		t.Errorf("Financials = %+v", record.Financials)
	}
	if len(record.Earnings) != 1 {
		t.Errorf("len(Earnings) = %d, want 1", len(record.Earnings))
	}

	// Social source is first in the chain, so news comes from Reddit.
	if len(record.News) != 1 {
		t.Fatalf("len(News) = %d, want 1", len(record.News))
	}
	if record.News[0].Source != "r/stocks" {
		t.Errorf("News[0].Source = %q, want r/stocks", record.News[0].Source)
	}
	if record.News[0].Sentiment.Label != stock.SentimentPositive {
		t.Errorf("News[0].Sentiment = %+v, want positive", record.News[0].Sentiment)
	}

	// Timeline merges the news item and the earnings report.
	if len(record.Timeline) != 2 {
		t.Errorf("len(Timeline) = %d, want 2", len(record.Timeline))
	}
	if len(record.Failed) != 0 {
		t.Errorf("Failed = %v, want empty", record.Failed)
	}
}

// TestIntegration_PartialFailure drops the quote endpoint and expects a
// degraded record, not an error.
func TestIntegration_PartialFailure(t *testing.T) {
	fh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/stock/profile2":
			w.Write([]byte(`{"ticker": "AAPL", "name": "Apple Inc", "marketCapitalization": 3000000}`))
		case "/quote":
			w.WriteHeader(http.StatusInternalServerError)
		case "/stock/metric":
			w.Write([]byte(`{"metric": {"beta": 1.28}}`))
		case "/stock/earnings":
			w.Write([]byte(`[]`))
		}
	}))
	defer fh.Close()
	na := newNewsAPIServer(t)
	rd := newRedditServer(t)

	s := newStack(t, fh.URL, na.URL, rd.URL, true)

	record, err := s.svc.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch() failed on partial outage: %v", err)
	}

	if record.Quote != nil {
		t.Error("Quote should be nil when the quote endpoint fails")
	}
	if record.Financials == nil {
		t.Error("Financials should survive the quote outage")
	}
	if _, ok := record.Failed["quote"]; !ok {
		t.Errorf("Failed = %v, want a quote entry", record.Failed)
	}
	if _, ok := record.Failed["earnings"]; !ok {
		t.Errorf("Failed = %v, want an earnings entry (empty history)", record.Failed)
	}
}

// TestIntegration_NewsFallback removes the bearer token so the social source
// fails with auth-required and the general news source takes over.
func TestIntegration_NewsFallback(t *testing.T) {
	fh := newFinnhubServer(t)
	na := newNewsAPIServer(t)
	rd := newRedditServer(t)

	s := newStack(t, fh.URL, na.URL, rd.URL, false)

	record, err := s.svc.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if len(record.News) != 1 {
		t.Fatalf("len(News) = %d, want 1 from the fallback source", len(record.News))
	}
	if record.News[0].Source != "Reuters" {
		t.Errorf("News[0].Source = %q, want Reuters (general news fallback)", record.News[0].Source)
	}
	if record.News[0].Category != stock.CategoryEarnings {
		t.Errorf("News[0].Category = %q, want earnings", record.News[0].Category)
	}
}

// TestIntegration_AllNewsSourcesDown verifies that news absence never aborts
// an aggregation.
func TestIntegration_AllNewsSourcesDown(t *testing.T) {
	fh := newFinnhubServer(t)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	s := newStack(t, fh.URL, down.URL, down.URL, false)

	record, err := s.svc.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if record.News == nil || len(record.News) != 0 {
		t.Errorf("News = %v, want empty list", record.News)
	}
	if record.Quote == nil {
		t.Error("market data should be unaffected by the news outage")
	}
}

// TestIntegration_ProfileOutageIsFatal verifies the one genuinely fatal
// sub-fetch.
func TestIntegration_ProfileOutageIsFatal(t *testing.T) {
	fh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer fh.Close()
	na := newNewsAPIServer(t)
	rd := newRedditServer(t)

	s := newStack(t, fh.URL, na.URL, rd.URL, true)

	_, err := s.svc.Fetch(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("Fetch() expected error when the profile endpoint is down")
	}
	if provider.KindOf(err) != provider.KindUpstream {
		t.Errorf("error kind = %q, want %q", provider.KindOf(err), provider.KindUpstream)
	}
}

// TestIntegration_ConcurrentTickers checks that distinct tickers aggregate
// concurrently without interference.
func TestIntegration_ConcurrentTickers(t *testing.T) {
	fh := newFinnhubServer(t)
	na := newNewsAPIServer(t)
	rd := newRedditServer(t)

	s := newStack(t, fh.URL, na.URL, rd.URL, true)

	tickers := []string{"AAPL", "MSFT", "GOOGL"}
	errs := make(chan error, len(tickers))
	for _, ticker := range tickers {
		go func(ticker string) {
			_, err := s.svc.Fetch(context.Background(), ticker)
			errs <- err
		}(ticker)
	}

	for range tickers {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Fetch() failed: %v", err)
		}
	}
}
