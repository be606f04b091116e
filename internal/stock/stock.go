package stock

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// tickerPattern matches a normalized ticker: 1-5 uppercase letters.
var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// Normalize uppercases and trims a raw ticker string and validates it
// against the symbol grammar. Normalization happens before validation,
// so "aapl" is accepted and becomes "AAPL".
func Normalize(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if !tickerPattern.MatchString(ticker) {
		return "", fmt.Errorf("invalid ticker %q: must be 1-5 letters", raw)
	}
	return ticker, nil
}

// Profile holds company identity data.
type Profile struct {
	Symbol    string
	Name      string
	Industry  string
	Exchange  string
	Currency  string
	WebURL    string
	LogoURL   string
	IPODate   string
	MarketCap float64 // absolute units, converted from provider millions
}

// Quote holds session pricing data.
type Quote struct {
	Current       float64
	Change        float64
	ChangePercent float64
	High          float64
	Low           float64
	Open          float64
	PreviousClose float64
}

// Financials holds the basic financial metrics bundle.
// Nil pointer fields mean the provider did not report the metric.
type Financials struct {
	PERatio       *float64
	DividendYield *float64
	PriceToBook   *float64
	Beta          *float64
	NetMargin     *float64
	CurrentRatio  *float64
	RevenueGrowth *float64
	High52Week    *float64
	Low52Week     *float64
}

// EarningsReport is one past reporting period.
type EarningsReport struct {
	Period          time.Time
	Quarter         int
	Year            int
	EstimateEPS     *float64
	ActualEPS       *float64
	Surprise        *float64
	SurprisePercent *float64
}

// RawNewsItem is a news or discussion item as an adapter produced it,
// before sentiment and category enrichment.
type RawNewsItem struct {
	Title       string
	Description string
	URL         string
	Source      string
	Author      string
	PublishedAt time.Time
	Score       int // provider popularity signal, zero when absent
}

// SentimentLabel is the three-way partition of a sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Sentiment is a signed keyword score plus its label.
type Sentiment struct {
	Score int
	Label SentimentLabel
}

// Category is the news classification bucket.
type Category string

const (
	CategoryEarnings   Category = "earnings"
	CategoryMergers    Category = "mergers-acquisitions"
	CategoryProduct    Category = "product"
	CategoryLeadership Category = "leadership"
	CategoryRegulatory Category = "regulatory"
	CategoryMarket     Category = "market"
	CategoryGeneral    Category = "general"
)

// NewsItem is an enriched news item carried on the canonical record.
type NewsItem struct {
	Title       string
	Description string
	URL         string
	Source      string
	Author      string
	PublishedAt time.Time
	Sentiment   Sentiment
	Category    Category
}

// EventKind distinguishes timeline event origins.
type EventKind string

const (
	EventNews     EventKind = "news"
	EventEarnings EventKind = "earnings"
)

// TimelineEvent is a dated, displayable unit derived from a news item
// or an earnings report. Regenerated on every aggregation.
type TimelineEvent struct {
	Kind        EventKind
	Date        time.Time
	Title       string
	Description string
	Sentiment   *Sentiment // set for news events
	Surprise    *float64   // set for earnings events, EPS surprise percent
}

// Record is the canonical merged result for one ticker. It is handed to
// the caller as a snapshot; nothing mutates it after Fetch returns.
// Nil Quote/Financials and empty Earnings/News mean those sub-fetches
// failed or returned nothing; Failed records why.
type Record struct {
	Symbol     string
	Profile    *Profile
	Quote      *Quote
	Financials *Financials
	Earnings   []EarningsReport
	News       []NewsItem
	Timeline   []TimelineEvent
	Failed     map[string]string
	FetchedAt  time.Time
}
