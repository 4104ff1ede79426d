package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// StatusError is returned for upstream responses with status >= 400.
type StatusError struct {
	StatusCode int
	URL        string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream http %d: %s", e.StatusCode, e.URL)
}

// Fetch GETs rawURL. On 429 or a network-level failure it waits, doubles the
// wait and tries again while retries remain. Any other error is returned at
// once. When retries run out the last error is returned unchanged.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	remaining := c.maxRetries
	backoff := c.backoff

	for attempt := 1; ; attempt++ {
		body, err := c.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if remaining <= 0 || !retryable(ctx, err) {
			return nil, err
		}

		host := hostOf(rawURL)
		log.Debug().
			Str("host", host).
			Int("attempt", attempt).
			Int64("backoff_ms", backoff.Milliseconds()).
			Err(err).
			Msg("retrying upstream request")
		c.metrics.FetchRetry(host)

		if serr := c.sleep(ctx, backoff); serr != nil {
			return nil, serr
		}
		remaining--
		backoff *= 2
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL, Body: body}
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests
	}
	// no response received
	return true
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
