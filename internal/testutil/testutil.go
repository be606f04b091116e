package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/carsongrett/nocharts/internal/stock"
)

// Clock is a settable time source for tests. Pass its Now method wherever a
// component accepts a clock override.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock frozen at t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the fake time forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// MockProfileSource is a configurable ProfileSource double.
type MockProfileSource struct {
	ProfileFunc func(ctx context.Context, symbol string) (*stock.Profile, error)
	Calls       int
}

func (m *MockProfileSource) Profile(ctx context.Context, symbol string) (*stock.Profile, error) {
	m.Calls++
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, symbol)
	}
	return &stock.Profile{Symbol: symbol, Name: symbol + " Inc"}, nil
}

// MockQuoteSource is a configurable QuoteSource double.
type MockQuoteSource struct {
	QuoteFunc func(ctx context.Context, symbol string) (*stock.Quote, error)
}

func (m *MockQuoteSource) Quote(ctx context.Context, symbol string) (*stock.Quote, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, symbol)
	}
	return &stock.Quote{Current: 100}, nil
}

// MockFinancialsSource is a configurable FinancialsSource double.
type MockFinancialsSource struct {
	FinancialsFunc func(ctx context.Context, symbol string) (*stock.Financials, error)
}

func (m *MockFinancialsSource) Financials(ctx context.Context, symbol string) (*stock.Financials, error) {
	if m.FinancialsFunc != nil {
		return m.FinancialsFunc(ctx, symbol)
	}
	return &stock.Financials{}, nil
}

// MockEarningsSource is a configurable EarningsSource double.
type MockEarningsSource struct {
	EarningsFunc func(ctx context.Context, symbol string) ([]stock.EarningsReport, error)
}

func (m *MockEarningsSource) Earnings(ctx context.Context, symbol string) ([]stock.EarningsReport, error) {
	if m.EarningsFunc != nil {
		return m.EarningsFunc(ctx, symbol)
	}
	return []stock.EarningsReport{}, nil
}

// MockNewsSource is a configurable NewsSource double.
type MockNewsSource struct {
	NewsFunc func(ctx context.Context, symbol, query string) ([]stock.RawNewsItem, error)
	NameFunc func() string
}

func (m *MockNewsSource) News(ctx context.Context, symbol, query string) ([]stock.RawNewsItem, error) {
	if m.NewsFunc != nil {
		return m.NewsFunc(ctx, symbol, query)
	}
	return []stock.RawNewsItem{}, nil
}

func (m *MockNewsSource) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock"
}

// NewMockNewsSource creates a news source double with fixed items and error.
func NewMockNewsSource(name string, items []stock.RawNewsItem, err error) *MockNewsSource {
	return &MockNewsSource{
		NewsFunc: func(ctx context.Context, symbol, query string) ([]stock.RawNewsItem, error) {
			return items, err
		},
		NameFunc: func() string { return name },
	}
}

// StaticTokenSource returns a fixed token value, or err when set.
type StaticTokenSource struct {
	Value string
	Err   error
}

func (s *StaticTokenSource) Token() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Value, nil
}
