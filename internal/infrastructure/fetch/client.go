package fetch

import (
	"context"
	"net/http"
	"time"

	"tokenagg/internal/application/port"
)

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultTimeout        = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// Client issues GET requests with bounded exponential backoff on transient
// failures (HTTP 429 or no response at all).
type Client struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	metrics    port.Metrics
}

type Option func(*Client)

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultInitialBackoff,
		sleep:      sleepCtx,
		metrics:    port.NopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithRetries sets the retry budget and the first backoff wait.
func WithRetries(maxRetries int, initialBackoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if initialBackoff > 0 {
			c.backoff = initialBackoff
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithMetrics(m port.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSleep replaces the backoff wait. It must return ctx.Err() when ctx
// is done before d elapses.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ port.Fetcher = (*Client)(nil)
