// Package reddit adapts Reddit post search into raw news items. Reddit
// requires a delegated bearer token; acquiring one is out of scope here, the
// adapter only asks the token store for a valid credential and surfaces
// auth-required when there is none. The embedding layer decides whether to
// start re-authorization.
package reddit

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

// DefaultPageSize bounds how many posts one search returns.
const DefaultPageSize = 25

// TokenSource supplies a valid bearer credential or an auth-required error.
type TokenSource interface {
	Token() (string, error)
}

// Client fetches discussion posts from Reddit search.
type Client struct {
	userAgent string
	tokens    TokenSource
	client    *resty.Client
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	cooldowns *ratelimit.Cooldowns
	cacheTTL  time.Duration
	pageSize  int
}

// New creates a Reddit adapter. Reddit rejects requests without a descriptive
// User-Agent, so it is a required argument rather than a default.
func New(userAgent, baseURL string, tokens TokenSource, c *cache.Cache, l *ratelimit.Limiter, cd *ratelimit.Cooldowns, cacheTTL time.Duration) *Client {
	return &Client{
		userAgent: userAgent,
		tokens:    tokens,
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
	return "reddit"
}

const cooldownKey = "reddit:search"

type listingResponse struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Ups        int     `json:"ups"`
}

// News searches recent posts mentioning the company. Posts come back mapped
// to raw news items with the post score preserved for diagnostics.
func (c *Client) News(ctx context.Context, symbol, query string) ([]stock.RawNewsItem, error) {
	if query == "" {
		query = symbol
	}
	key := fmt.Sprintf("reddit:search:%s:%d", symbol, c.pageSize)
	if v, ok := c.cache.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		return v.([]stock.RawNewsItem), nil
	}
	if c.cooldowns.Active(cooldownKey) {
		return nil, provider.NewRateLimitError("reddit search is cooling down")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	if !c.limiter.Allow() {
		return nil, provider.NewRateLimitError("request budget exhausted for this window")
	}

	var result listingResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("User-Agent", c.userAgent).
		SetQueryParams(map[string]string{
			"q":     query,
			"sort":  "new",
			"limit": strconv.Itoa(c.pageSize),
			"t":     "month",
		}).
		SetResult(&result).
		Get("/search")

	if err != nil {
		return nil, provider.WrapTransportError(err)
	}
	if !resp.IsSuccess() {
		if resp.StatusCode() == 429 {
			c.cooldowns.Start(cooldownKey, ratelimit.DefaultCooldown)
			slog.Debug("reddit reported rate limit, starting cooldown")
		}
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode(), resp.String())
	}

	items := make([]stock.RawNewsItem, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		p := child.Data
		if p.Title == "" {
			continue
		}
		items = append(items, stock.RawNewsItem{
			Title:       p.Title,
			Description: p.Selftext,
			URL:         "https://www.reddit.com" + p.Permalink,
			Source:      "r/" + p.Subreddit,
			Author:      p.Author,
			PublishedAt: time.Unix(int64(p.CreatedUTC), 0).UTC(),
			Score:       p.Ups,
		})
	}
	c.cache.Set(key, items, c.cacheTTL)
	return items, nil
}
