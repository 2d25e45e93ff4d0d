package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	canvasRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_retries_total",
		Help: "Total number of retry attempts by HTTP status",
	}, []string{"status"})

	canvasRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "canvas_retry_backoff_seconds",
		Help:    "Backoff duration for retries",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	})

	canvasRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the total request budget, including the initial request.
	MaxAttempts int

	// InitialBackoff is the first backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the backoff ceiling.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// retryAfterHint parses a numeric Retry-After header value.
// Returns 0 when the header is absent or not a number.
func retryAfterHint(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// retryWait computes the actual wait for one retry: the current backoff,
// raised to the server hint when the hint is larger. The hint never shrinks
// the computed backoff.
func retryWait(backoff, hint time.Duration) time.Duration {
	if hint > backoff {
		return hint
	}
	return backoff
}

// attemptResult carries one attempt's outcome through the retry loop.
type attemptResult struct {
	resp      *http.Response
	retryable bool
	hint      time.Duration
	err       error
}

// retryWithBackoff drives fn through the retry budget with exponential
// backoff. It respects context cancellation during waits.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() attemptResult) (*http.Response, error) {
	backoff := cfg.InitialBackoff
	var last attemptResult

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		last = fn()
		if !last.retryable {
			return last.resp, last.err
		}

		// Budget spent: surface the last failure without waiting.
		if attempt >= cfg.MaxAttempts {
			break
		}

		wait := retryWait(backoff, last.hint)

		status := 0
		if last.resp != nil {
			status = last.resp.StatusCode
		}
		canvasRetriesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
		canvasRetryBackoffSeconds.Observe(wait.Seconds())

		logger.Warn().
			Int("attempt", attempt).
			Int("status", status).
			Dur("delay", wait).
			Msg("Transient upstream failure, retrying after backoff")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	canvasRetryExhaustedTotal.Inc()
	logger.Warn().
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	// Exhaustion escalates the final transient failure to a permanent one,
	// keeping the last status code and body excerpt.
	var ue *UpstreamError
	if errors.As(last.err, &ue) {
		ue.Transient = false
		ue.Err = fmt.Errorf("%w after %d attempts", ErrRetryExhausted, cfg.MaxAttempts)
		return nil, ue
	}
	if last.err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, cfg.MaxAttempts, last.err)
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrRetryExhausted, cfg.MaxAttempts)
}
