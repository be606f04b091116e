package provider

import (
	"context"

	"github.com/carsongrett/nocharts/internal/stock"
)

// ProfileSource fetches company identity data for a symbol.
type ProfileSource interface {
	Profile(ctx context.Context, symbol string) (*stock.Profile, error)
}

// QuoteSource fetches session pricing for a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*stock.Quote, error)
}

// FinancialsSource fetches the basic financial metrics bundle for a symbol.
type FinancialsSource interface {
	Financials(ctx context.Context, symbol string) (*stock.Financials, error)
}

// EarningsSource fetches past earnings reports for a symbol.
type EarningsSource interface {
	Earnings(ctx context.Context, symbol string) ([]stock.EarningsReport, error)
}

// NewsSource fetches news or discussion items. The query is the company
// display name when known, improving search relevance over the bare symbol.
// Sources are tried in order by the aggregator; any failure falls through
// to the next one.
type NewsSource interface {
	News(ctx context.Context, symbol, query string) ([]stock.RawNewsItem, error)

	// Name identifies the source in logs and diagnostics.
	Name() string
}

// Outcome carries one sub-fetch result through the aggregator's concurrent
// join. Part names the sub-fetch ("quote", "financials", ...); Value is nil
// when Err is set.
type Outcome struct {
	Part  string
	Value any
	Err   error
}
