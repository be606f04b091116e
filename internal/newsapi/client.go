// Package newsapi adapts the NewsAPI article-search endpoint into raw news
// items. NewsAPI embeds its own status/code fields in the body, sometimes
// under a success HTTP status, so classification looks at the payload and
// not only the status line.
package newsapi

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/carsongrett/nocharts/internal/cache"
	"github.com/carsongrett/nocharts/internal/provider"
	"github.com/carsongrett/nocharts/internal/ratelimit"
	"github.com/carsongrett/nocharts/internal/stock"
)

// DefaultPageSize bounds how many articles one search returns.
const DefaultPageSize = 20

// Client fetches general news from NewsAPI.
type Client struct {
	apiKey    string
	client    *resty.Client
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	cooldowns *ratelimit.Cooldowns
	cacheTTL  time.Duration
	pageSize  int
}

// New creates a NewsAPI adapter sharing the caller's cache, limiter, and
// cooldown tracker.
func New(apiKey, baseURL string, c *cache.Cache, l *ratelimit.Limiter, cd *ratelimit.Cooldowns, cacheTTL time.Duration) *Client {
	return &Client{
		apiKey:    apiKey,
		client:    provider.NewHTTPClient(baseURL),
		cache:     c,
		limiter:   l,
		cooldowns: cd,
		cacheTTL:  cacheTTL,
		pageSize:  DefaultPageSize,
	}
}

// Name identifies this source in logs and diagnostics.
func (c *Client) Name() string {
	return "newsapi"
}

const cooldownKey = "newsapi:search"

type searchResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// News searches articles about the company. The query is the display name
// when known; symbol is the fallback search term and part of the cache key.
func (c *Client) News(ctx context.Context, symbol, query string) ([]stock.RawNewsItem, error) {
	if query == "" {
		query = symbol
	}
	key := fmt.Sprintf("newsapi:search:%s:%d", symbol, c.pageSize)
	if v, ok := c.cache.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		return v.([]stock.RawNewsItem), nil
	}
	if c.cooldowns.Active(cooldownKey) {
		return nil, provider.NewRateLimitError("newsapi search is cooling down")
	}
	if !c.limiter.Allow() {
		return nil, provider.NewRateLimitError("request budget exhausted for this window")
	}

	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", c.apiKey).
		SetQueryParams(map[string]string{
			"q":        query,
			"language": "en",
			"sortBy":   "publishedAt",
			"pageSize": strconv.Itoa(c.pageSize),
		}).
		SetResult(&result).
		SetError(&result).
		Get("/v2/everything")

	if err != nil {
		return nil, provider.WrapTransportError(err)
	}

	// NewsAPI reports quota exhaustion in the body, occasionally under a
	// success status. Honor the body signal first.
	if result.Status == "error" {
		if result.Code == "rateLimited" {
			c.cooldowns.Start(cooldownKey, ratelimit.DefaultCooldown)
			slog.Debug("newsapi reported quota exhaustion, starting cooldown")
			return nil, provider.NewRateLimitError(result.Message)
		}
		return nil, provider.NewUpstreamError(resp.StatusCode(), result.Message)
	}
	if !resp.IsSuccess() {
		if resp.StatusCode() == 429 {
			c.cooldowns.Start(cooldownKey, ratelimit.DefaultCooldown)
		}
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode(), resp.String())
	}

	items := make([]stock.RawNewsItem, 0, len(result.Articles))
	for _, a := range result.Articles {
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}
		items = append(items, stock.RawNewsItem{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			Author:      a.Author,
			PublishedAt: publishedAt,
		})
	}
	c.cache.Set(key, items, c.cacheTTL)
	return items, nil
}
