// Package explorer talks to a blockchain.info-compatible block explorer API.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client is an HTTP client for an explorer API with request pacing and retry
// while the explorer reports itself busy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	limiter    *rate.Limiter
}

// NewClient creates a new explorer client. Requests are spaced at least
// rateInterval apart; a non-positive interval disables pacing.
func NewClient(baseURL string, maxRetries int, baseDelay, rateInterval time.Duration) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(rateInterval), 1)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		limiter:    limiter,
	}
}

// maxRetryAfter caps how long a server-supplied Retry-After may stall a refresh.
const maxRetryAfter = time.Minute

// errBusy marks a response the explorer expects us to retry later.
type errBusy struct {
	status     int
	retryAfter time.Duration
}

func (e *errBusy) Error() string {
	return fmt.Sprintf("explorer busy: HTTP %d", e.status)
}

// get fetches path, retrying when the explorer answers 429 or 503. The wait
// before each retry is the server's Retry-After when given, otherwise an
// exponential backoff from baseDelay.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	var busy *errBusy
	for attempt := 0; ; attempt++ {
		body, err := c.fetchOnce(ctx, url)
		if !errors.As(err, &busy) {
			return body, err
		}
		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("%s after %d attempts: %w", url, attempt+1, err)
		}

		delay := busy.retryAfter
		if delay <= 0 {
			delay = c.baseDelay << attempt
		}
		slog.Debug("explorer busy, backing off", "url", url, "status", busy.status, "delay", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// fetchOnce performs a single paced GET. Retryable statuses come back as *errBusy.
func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return nil, &errBusy{status: resp.StatusCode, retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(body))
	}
}

// parseRetryAfter reads a delay-seconds Retry-After value. HTTP dates and
// garbage yield zero, as does anything non-positive.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

// getJSON performs a GET request and unmarshals the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", path, err)
	}
	return nil
}
