package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edusync/canvas-export/pkg/canvas"
)

var (
	studentsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_students_scanned_total",
		Help: "Students seen in the upstream listing",
	})

	studentsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_students_matched_total",
		Help: "Students surviving the identity filter",
	})

	studentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_student_outcomes_total",
		Help: "Per-student aggregation outcomes",
	}, []string{"outcome"})
)

// Report summarizes one export run.
type Report struct {
	Scanned int
	Matched int
	Partial int
	Failed  int
}

// Driver sequences filter → aggregator over the student stream, one student
// at a time, accumulating results in upstream listing order.
type Driver struct {
	api        *canvas.Client
	aggregator *Aggregator
	filter     *IdentityFilter
	logger     zerolog.Logger
}

// NewDriver creates an export driver.
func NewDriver(api *canvas.Client, aggregator *Aggregator, filter *IdentityFilter) *Driver {
	return &Driver{
		api:        api,
		aggregator: aggregator,
		filter:     filter,
		logger:     log.With().Str("component", "driver").Logger(),
	}
}

// Run harvests the account's students and returns one Result per matched
// student, in the order the upstream listing returned them. It fails only
// when the student listing itself cannot be read; per-student failures are
// carried in the results and counted in the report.
func (d *Driver) Run(ctx context.Context, accountID string) ([]Result, Report, error) {
	var (
		results []Result
		report  Report
	)

	d.logger.Info().Str("account_id", accountID).Msg("Starting export")

	pager := d.api.Students(accountID)
	for pager.Next(ctx) {
		report.Scanned++
		studentsScanned.Inc()

		var user canvas.User
		if err := json.Unmarshal(pager.Item(), &user); err != nil {
			d.logger.Warn().Err(err).Msg("Skipping malformed user record")
			continue
		}
		if user.ID == 0 {
			continue
		}
		if !d.filter.Match(&user) {
			continue
		}

		report.Matched++
		studentsMatched.Inc()

		result := d.aggregator.Aggregate(ctx, &user)
		studentOutcomes.WithLabelValues(string(result.Outcome)).Inc()
		switch result.Outcome {
		case OutcomePartial:
			report.Partial++
		case OutcomeFailed:
			report.Failed++
		}
		results = append(results, result)
	}
	if err := pager.Err(); err != nil {
		return results, report, fmt.Errorf("list students: %w", err)
	}

	d.logger.Info().
		Int("scanned", report.Scanned).
		Int("matched", report.Matched).
		Int("partial", report.Partial).
		Int("failed", report.Failed).
		Msg("Export complete")

	return results, report, nil
}
