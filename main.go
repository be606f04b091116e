package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/carsongrett/nocharts/internal/aggregate"
	"github.com/carsongrett/nocharts/internal/cache"
	"github.com/carsongrett/nocharts/internal/config"
	"github.com/carsongrett/nocharts/internal/enrich"
	"github.com/carsongrett/nocharts/internal/finnhub"
	"github.com/carsongrett/nocharts/internal/newsapi"
	"github.com/carsongrett/nocharts/internal/provider"
	"github.com/carsongrett/nocharts/internal/ratelimit"
	"github.com/carsongrett/nocharts/internal/reddit"
	"github.com/carsongrett/nocharts/internal/stock"
	"github.com/carsongrett/nocharts/internal/token"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tickers := os.Args[1:]
	if len(tickers) == 0 {
		tickers = cfg.Tickers
	}
	if len(tickers) == 0 {
		log.Fatal("No tickers given: pass symbols as arguments or set them in config")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Shared services owned here, injected into the adapters
	store := cache.New(cfg.CacheTTL)
	limiter := ratelimit.New(cfg.MaxRequestsPerMinute)
	cooldowns := ratelimit.NewCooldowns()
	tokens := token.NewStore(afero.NewOsFs(), cfg.TokenFile)

	market := finnhub.New(cfg.FinnhubAPIKey, cfg.FinnhubBaseURL, store, limiter, cooldowns, cfg.CacheTTL)

	// News fallback order: social discussion first, general news second
	newsSources := []provider.NewsSource{
		reddit.New(cfg.RedditUserAgent, cfg.RedditBaseURL, tokens, store, limiter, cooldowns, cfg.CacheTTL),
		newsapi.New(cfg.NewsAPIKey, cfg.NewsAPIBaseURL, store, limiter, cooldowns, cfg.CacheTTL),
	}

	svc := aggregate.New(market, market, market, market, newsSources,
		aggregate.WithCallTimeout(cfg.CallTimeout))

	// Pace multi-ticker runs so a long list doesn't burn the whole request
	// budget in one burst
	pacer := rate.NewLimiter(rate.Limit(1), 1)

	for _, ticker := range tickers {
		if err := pacer.Wait(ctx); err != nil {
			return
		}

		record, err := svc.Fetch(ctx, ticker)
		if err != nil {
			fmt.Printf("%s: ERROR - %v\n", ticker, err)
			continue
		}
		printRecord(record)
	}
}

func printRecord(r *stock.Record) {
	fmt.Println("================================================")
	fmt.Printf("%s - %s (%s)\n", r.Symbol, r.Profile.Name, r.Profile.Industry)
	fmt.Printf("Market cap: %s\n", enrich.FormatCompact(&r.Profile.MarketCap))

	if r.Quote != nil {
		fmt.Printf("Price: %s (%s)\n",
			enrich.FormatCurrency(&r.Quote.Current),
			enrich.FormatPercent(&r.Quote.ChangePercent))
	} else {
		fmt.Printf("Price: %s\n", enrich.NotAvailable)
	}

	if r.Financials != nil {
		fmt.Printf("P/E: %s  Div yield: %s  Beta: %s\n",
			enrich.FormatNumber(r.Financials.PERatio),
			enrich.FormatPercent(r.Financials.DividendYield),
			enrich.FormatNumber(r.Financials.Beta))
	}

	for part, reason := range r.Failed {
		fmt.Printf("  (%s unavailable: %s)\n", part, reason)
	}

	fmt.Println("Timeline:")
	for _, ev := range r.Timeline {
		marker := "·"
		if ev.Sentiment != nil {
			switch ev.Sentiment.Label {
			case stock.SentimentPositive:
				marker = "+"
			case stock.SentimentNegative:
				marker = "-"
			}
		}
		fmt.Printf("  %s %s [%s] %s\n", ev.Date.Format("2006-01-02"), marker, ev.Kind, ev.Title)
	}
}
