// Package metrics exposes the pipeline's Prometheus metrics over HTTP.
// Metrics themselves are defined next to the code they observe (pkg/client,
// pkg/cache, internal/export) to keep packages self-contained.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Serve starts a background HTTP listener exposing /metrics on addr, for
// scraping during long export runs. Listen failures are logged, not fatal:
// the export proceeds without metrics.
//
// Exported metrics:
//   - canvas_requests_total{method, status}: upstream requests by method and HTTP status
//   - canvas_request_duration_seconds{method}: upstream request duration
//   - canvas_retries_total{status}: retry attempts by status
//   - canvas_retry_backoff_seconds: backoff wait durations
//   - canvas_retry_exhausted_total: requests that spent the retry budget
//   - export_course_cache_hits_total / export_course_cache_misses_total
//   - export_students_scanned_total: students seen in the upstream listing
//   - export_students_matched_total: students surviving the identity filter
//   - export_student_outcomes_total{outcome}: per-student results (ok, partial, failed)
//   - export_student_duration_seconds: aggregation time per student
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Str("addr", addr).Msg("Metrics listener failed")
		}
	}()
}
