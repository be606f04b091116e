// Package aggregate orchestrates one ticker's fan-out across the provider
// adapters and assembles the canonical record. Profile resolves first and
// alone (its display name sharpens the later news search); the remaining
// sub-fetches run concurrently and settle independently, so one slow or
// failing provider degrades a field instead of aborting the aggregation.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carsongrett/nocharts/internal/enrich"
	"github.com/carsongrett/nocharts/internal/provider"
	"github.com/carsongrett/nocharts/internal/stock"
)

// DefaultCallTimeout bounds each provider call so a hanging provider resolves
// as a timeout instead of stalling the join.
const DefaultCallTimeout = 15 * time.Second

// Service is the aggregation entry point the embedding layer invokes.
type Service struct {
	profiles    provider.ProfileSource
	quotes      provider.QuoteSource
	financials  provider.FinancialsSource
	earnings    provider.EarningsSource
	newsSources []provider.NewsSource

	callTimeout time.Duration
	now         func() time.Time
	group       singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithCallTimeout overrides the per-provider-call deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) { s.callTimeout = d }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. newsSources is the ordered fallback chain: the first
// source is tried first, any failure falls through to the next.
func New(
	profiles provider.ProfileSource,
	quotes provider.QuoteSource,
	financials provider.FinancialsSource,
	earnings provider.EarningsSource,
	newsSources []provider.NewsSource,
	opts ...Option,
) *Service {
	s := &Service{
		profiles:    profiles,
		quotes:      quotes,
		financials:  financials,
		earnings:    earnings,
		newsSources: newsSources,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch aggregates everything known about one ticker into a canonical
// record. The only fatal failures are an invalid ticker and a failed profile
// fetch; every other sub-fetch degrades to a nil or empty field, with the
// reason recorded on the record. Concurrent calls for the same ticker share
// one in-flight aggregation.
func (s *Service) Fetch(ctx context.Context, raw string) (*stock.Record, error) {
	ticker, err := stock.Normalize(raw)
	if err != nil {
		return nil, provider.NewInvalidTickerError(raw)
	}

	v, err, _ := s.group.Do(ticker, func() (any, error) {
		return s.fetchOne(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stock.Record), nil
}

func (s *Service) fetchOne(ctx context.Context, ticker string) (*stock.Record, error) {
	profile, err := s.fetchProfile(ctx, ticker)
	if err != nil {
		return nil, err
	}

	record := &stock.Record{
		Symbol:    ticker,
		Profile:   profile,
		Failed:    make(map[string]string),
		FetchedAt: s.now(),
	}

	// Fan out the independent sub-fetches. Each goroutine settles into an
	// outcome on the channel; the join waits for all of them and never fails
	// fast on an individual error.
	outcomes := make(chan provider.Outcome, 4)

	go func() {
		callCtx, cancel := s.withDeadline(ctx)
		defer cancel()
		q, err := s.quotes.Quote(callCtx, ticker)
		outcomes <- provider.Outcome{Part: "quote", Value: q, Err: err}
	}()

	go func() {
		callCtx, cancel := s.withDeadline(ctx)
		defer cancel()
		f, err := s.financials.Financials(callCtx, ticker)
		outcomes <- provider.Outcome{Part: "financials", Value: f, Err: err}
	}()

	go func() {
		callCtx, cancel := s.withDeadline(ctx)
		defer cancel()
		e, err := s.earnings.Earnings(callCtx, ticker)
		outcomes <- provider.Outcome{Part: "earnings", Value: e, Err: err}
	}()

	go func() {
		news := s.fetchNews(ctx, ticker, profile.Name)
		outcomes <- provider.Outcome{Part: "news", Value: news, Err: nil}
	}()

	var rawNews []stock.RawNewsItem
	for i := 0; i < 4; i++ {
		out := <-outcomes
		if out.Err != nil {
			slog.Debug("sub-fetch degraded", "ticker", ticker, "part", out.Part, "error", out.Err)
			record.Failed[out.Part] = out.Err.Error()
			continue
		}
		switch out.Part {
		case "quote":
			record.Quote = out.Value.(*stock.Quote)
		case "financials":
			record.Financials = out.Value.(*stock.Financials)
		case "earnings":
			record.Earnings = out.Value.([]stock.EarningsReport)
		case "news":
			rawNews = out.Value.([]stock.RawNewsItem)
		}
	}

	record.News = enrich.EnrichNews(rawNews)
	record.Timeline = enrich.BuildTimeline(record.News, record.Earnings)
	return record, nil
}

// fetchProfile resolves the company profile, the one sub-fetch the record
// cannot exist without.
func (s *Service) fetchProfile(ctx context.Context, ticker string) (*stock.Profile, error) {
	callCtx, cancel := s.withDeadline(ctx)
	defer cancel()

	profile, err := s.profiles.Profile(callCtx, ticker)
	if err != nil {
		var pe *provider.Error
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, provider.NewNetworkError(err)
	}
	return profile, nil
}

// fetchNews walks the ordered source chain, continuing past every error kind
// including auth-required from the delegated-auth source. When the whole
// chain fails the result is an empty list: news absence never aborts an
// aggregation.
func (s *Service) fetchNews(ctx context.Context, ticker, companyName string) []stock.RawNewsItem {
	for _, src := range s.newsSources {
		callCtx, cancel := s.withDeadline(ctx)
		items, err := src.News(callCtx, ticker, companyName)
		cancel()
		if err != nil {
			slog.Debug("news source failed, falling through",
				"ticker", ticker, "source", src.Name(), "kind", provider.KindOf(err), "error", err)
			continue
		}
		return items
	}
	return []stock.RawNewsItem{}
}

func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}
