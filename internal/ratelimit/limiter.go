// Package ratelimit bounds outbound request volume. Two mechanisms live here:
// a global fixed-window counter ("we are calling too fast") and a per-operation
// cooldown tracker ("the provider told us to back off"). Adapters consult both
// before touching the network.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultMaxPerMinute is the live-configuration cap on outbound requests.
const DefaultMaxPerMinute = 20

// Window is the fixed-window length.
const Window = time.Minute

// Limiter is a fixed-window counter: up to max requests per window, counted
// from the first request after a reset. Bursts immediately after a window
// rollover are permitted up to the cap; this is not a token bucket. Safe for
// concurrent use.
type Limiter struct {
	mu          sync.Mutex
	max         int
	windowStart time.Time
	count       int
	now         func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter with the given per-minute cap. A non-positive max
// falls back to DefaultMaxPerMinute.
func New(max int, opts ...Option) *Limiter {
	if max <= 0 {
		max = DefaultMaxPerMinute
	}
	l := &Limiter{max: max, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether one more outbound request may happen now, consuming
// a slot when it may. Callers that get false must fail fast instead of
// attempting the network call.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.windowStart) > Window {
		l.windowStart = now
		l.count = 0
	}
	if l.count >= l.max {
		return false
	}
	l.count++
	return true
}

// DefaultCooldown is how long an operation stays suppressed after its
// provider signals overload.
const DefaultCooldown = time.Minute

// Cooldowns tracks per-operation backoff after a provider-reported rate
// limit. Keys are provider+operation, independent of request parameters like
// page size, so one angry response suppresses every variant of the call.
type Cooldowns struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

// CooldownOption configures a Cooldowns tracker.
type CooldownOption func(*Cooldowns)

// WithCooldownClock overrides the time source for tests.
func WithCooldownClock(now func() time.Time) CooldownOption {
	return func(c *Cooldowns) { c.now = now }
}

// NewCooldowns creates an empty cooldown tracker.
func NewCooldowns(opts ...CooldownOption) *Cooldowns {
	c := &Cooldowns{until: make(map[string]time.Time), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start suppresses key for d. A non-positive d falls back to DefaultCooldown.
func (c *Cooldowns) Start(key string, d time.Duration) {
	if d <= 0 {
		d = DefaultCooldown
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until[key] = c.now().Add(d)
}

// Active reports whether key is still cooling down, clearing it once lapsed.
func (c *Cooldowns) Active(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	until, ok := c.until[key]
	if !ok {
		return false
	}
	if c.now().After(until) {
		delete(c.until, key)
		return false
	}
	return true
}
