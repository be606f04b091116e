package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the nocharts aggregation core.
type Config struct {
	// API keys for the external providers
	FinnhubAPIKey string `mapstructure:"finnhub_api_key"`
	NewsAPIKey    string `mapstructure:"newsapi_api_key"`

	// Base URLs for API endpoints (configurable for testing)
	FinnhubBaseURL string `mapstructure:"finnhub_base_url"`
	NewsAPIBaseURL string `mapstructure:"newsapi_base_url"`
	RedditBaseURL  string `mapstructure:"reddit_base_url"`

	// Reddit access
	RedditUserAgent string `mapstructure:"reddit_user_agent"`
	TokenFile       string `mapstructure:"token_file"`

	// Aggregation policy
	MaxRequestsPerMinute int           `mapstructure:"max_requests_per_minute"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	CallTimeout          time.Duration `mapstructure:"call_timeout"`

	// Tickers to aggregate when none are passed on the command line
	Tickers []string `mapstructure:"tickers"`
}

// Load reads configuration from environment variables and an optional config
// file. Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - FINNHUB_API_KEY
//   - NEWSAPI_API_KEY
//   - FINNHUB_BASE_URL (optional, defaults to production)
//   - NEWSAPI_BASE_URL (optional, defaults to production)
//   - REDDIT_BASE_URL (optional, defaults to production)
//   - REDDIT_USER_AGENT (optional)
//   - TOKEN_FILE (optional)
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("finnhub_base_url", "https://finnhub.io/api/v1")
	v.SetDefault("newsapi_base_url", "https://newsapi.org")
	v.SetDefault("reddit_base_url", "https://oauth.reddit.com")
	v.SetDefault("reddit_user_agent", "nocharts/1.0")
	v.SetDefault("token_file", "reddit_token.json")
	v.SetDefault("max_requests_per_minute", 20)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("call_timeout", 15*time.Second)

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.nocharts")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	v.BindEnv("finnhub_api_key", "FINNHUB_API_KEY")
	v.BindEnv("newsapi_api_key", "NEWSAPI_API_KEY")
	v.BindEnv("finnhub_base_url", "FINNHUB_BASE_URL")
	v.BindEnv("newsapi_base_url", "NEWSAPI_BASE_URL")
	v.BindEnv("reddit_base_url", "REDDIT_BASE_URL")
	v.BindEnv("reddit_user_agent", "REDDIT_USER_AGENT")
	v.BindEnv("token_file", "TOKEN_FILE")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	var missing []string
	if config.FinnhubAPIKey == "" {
		missing = append(missing, "FINNHUB_API_KEY")
	}
	if config.NewsAPIKey == "" {
		missing = append(missing, "NEWSAPI_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return config, nil
}
