// Package client provides the retrying HTTP client used by all Canvas and
// Airtable requests: bounded retry budget, exponential backoff honoring
// Retry-After, and transient/permanent error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream requests.
var (
	canvasRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_requests_total",
		Help: "Total upstream requests by method and status",
	}, []string{"method", "status"})

	canvasRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "canvas_request_duration_seconds",
		Help:    "Upstream request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})
)

// Client issues authenticated HTTP requests with retry and backoff.
// A single Client owns one underlying connection pool and is threaded
// through the harvesting components; it carries no request state.
type Client struct {
	httpClient *http.Client
	token      string
	retry      RetryConfig
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token is the static bearer credential sent with every request.
	Token string

	// Timeout applies per attempt, not per logical request.
	Timeout time.Duration

	// Retry configures the backoff policy.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token string) Config {
	return Config{
		Token:   token,
		Timeout: 120 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// New creates a new retrying client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("bearer token is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		token:  cfg.Token,
		retry:  cfg.Retry,
		logger: log.With().Str("component", "http-client").Logger(),
	}, nil
}

// Get performs a GET request with retry. The caller owns the response body.
// params may be nil.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, params, nil)
}

// GetJSON performs a GET request and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	resp, err := c.Get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SendJSON performs a request with a JSON body (POST/PATCH) and decodes the
// response into v when v is non-nil.
func (c *Client) SendJSON(ctx context.Context, method, rawURL string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	resp, err := c.do(ctx, method, rawURL, nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do executes one logical request through the retry loop.
func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values, body []byte) (*http.Response, error) {
	target, err := mergeParams(rawURL, params)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	startTime := time.Now()
	defer func() {
		canvasRequestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	return retryWithBackoff(ctx, c.retry, c.logger, func() attemptResult {
		return c.attempt(ctx, method, target, body)
	})
}

// attempt executes a single HTTP request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, target string, body []byte) attemptResult {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return attemptResult{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures are retried like transient statuses.
		c.logger.Error().Err(err).Str("url", target).Msg("HTTP request failed")
		canvasRequestsTotal.WithLabelValues(method, "network_error").Inc()
		return attemptResult{retryable: true, err: err}
	}

	canvasRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return attemptResult{resp: resp}
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, bodyExcerptLimit+1))
	resp.Body.Close()

	ue := &UpstreamError{
		StatusCode: resp.StatusCode,
		Body:       excerpt(raw),
		Transient:  IsTransientStatus(resp.StatusCode),
	}

	if ue.Transient {
		return attemptResult{
			resp:      resp,
			retryable: true,
			hint:      retryAfterHint(resp.Header),
			err:       ue,
		}
	}

	// All other non-2xx statuses fail immediately without retry.
	c.logger.Warn().
		Str("url", target).
		Int("status", resp.StatusCode).
		Msg("Upstream request rejected")
	return attemptResult{err: ue}
}

// mergeParams appends params to any query already present in rawURL.
// Pagination "next" links arrive with their query pre-encoded, so params is
// nil for every page after the first.
func mergeParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, values := range params {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
