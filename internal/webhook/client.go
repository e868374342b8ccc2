package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
)

// Client fetches the enrollment feed, caching the last good payload so a
// flaky upstream does not blank the dashboard.
type Client struct {
	http       *resty.Client
	url        string
	maxRetries int
	retryDelay time.Duration
	cacheTTL   time.Duration
	clock      core.Clock

	mu          sync.Mutex
	cache       []Event
	lastSuccess time.Time
}

type Options struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	Clock      core.Clock
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = core.RealClock{}
	}
	return &Client{
		http:       resty.New().SetTimeout(opts.Timeout),
		url:        opts.URL,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		cacheTTL:   opts.CacheTTL,
		clock:      opts.Clock,
	}
}

// NewClientFromConfig builds a client from the system settings.
func NewClientFromConfig(clock core.Clock) *Client {
	return NewClient(Options{
		URL:        config.GetSystemSettingString(config.WEBHOOK_URL),
		Timeout:    durationSetting(config.WEBHOOK_TIMEOUT),
		MaxRetries: config.GetSystemSettingInteger(config.WEBHOOK_RETRIES),
		RetryDelay: durationSetting(config.WEBHOOK_RETRY_DELAY),
		CacheTTL:   durationSetting(config.WEBHOOK_CACHE_TTL),
		Clock:      clock,
	})
}

func durationSetting(key string) time.Duration {
	d, err := time.ParseDuration(config.GetSystemSettingString(key))
	if err != nil {
		return 0
	}
	return d
}

// Fetch returns the current feed. A payload younger than the cache window
// is served without a network call. When every attempt fails a stale
// cached payload is returned instead, and an error only when there is no
// cache at all.
func (c *Client) Fetch(ctx context.Context) ([]Event, error) {
	c.mu.Lock()
	if c.cache != nil && c.clock.Now().Sub(c.lastSuccess) < c.cacheTTL {
		events := c.cache
		c.mu.Unlock()
		slog.Debug("Returning cached webhook data")
		return events, nil
	}
	c.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		events, err := c.doFetch(ctx)
		if err == nil {
			c.mu.Lock()
			c.cache = events
			c.lastSuccess = c.clock.Now()
			c.mu.Unlock()
			return events, nil
		}
		lastErr = err
		slog.Warn("Webhook fetch failed", "attempt", attempt, "maxRetries", c.maxRetries, "error", err)
		if attempt < c.maxRetries {
			// delay grows with each attempt, 1s then 2s by default
			c.clock.Sleep(c.retryDelay * time.Duration(attempt))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		slog.Warn("Serving stale webhook data after all retries failed")
		return c.cache, nil
	}
	return nil, fmt.Errorf("fetching webhook data: %w", lastErr)
}

func (c *Client) doFetch(ctx context.Context) ([]Event, error) {
	var events []Event
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&events).
		Get(c.url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("webhook feed returned status %d", resp.StatusCode())
	}
	return events, nil
}
