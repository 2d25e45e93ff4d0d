// Package export implements the aggregation engine: it stitches a student's
// enrollments, courses, assignment metrics, and guardian linkage into one
// flat summary record per student.
package export

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edusync/canvas-export/pkg/cache"
	"github.com/edusync/canvas-export/pkg/canvas"
)

var studentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "export_student_duration_seconds",
	Help:    "Aggregation time per student, including nested fetches",
	Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
})

// guardianScanLimit caps how many of a student's courses are scanned for
// observer enrollments, bounding API calls per student.
const guardianScanLimit = 10

// Outcome classifies one student's aggregation result.
type Outcome string

const (
	// OutcomeOK: summary produced, every nested fetch succeeded.
	OutcomeOK Outcome = "ok"

	// OutcomePartial: summary produced, but one or more nested fetches
	// failed and contributed nothing to their fields.
	OutcomePartial Outcome = "partial"

	// OutcomeFailed: the top-level enrollment fetch failed, no summary.
	OutcomeFailed Outcome = "failed"
)

// Result is the explicit per-student outcome: a summary with its quality,
// or a failure with its reason.
type Result struct {
	UserID  int64
	Outcome Outcome
	Summary *Summary
	Err     error
}

// Aggregator produces one Summary per student via the nested fetch sequence.
type Aggregator struct {
	api                *canvas.Client
	courses            *cache.CourseCache
	includeAssignments bool
	logger             zerolog.Logger
}

// NewAggregator creates an aggregator. When includeAssignments is set, the
// per-course assignment and submission listings are harvested as well,
// multiplying network calls per student by roughly the course count.
func NewAggregator(api *canvas.Client, courses *cache.CourseCache, includeAssignments bool) *Aggregator {
	return &Aggregator{
		api:                api,
		courses:            courses,
		includeAssignments: includeAssignments,
		logger:             log.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate builds the summary record for one student. Only the top-level
// enrollment fetch is fatal; every nested fetch failure is logged, recorded
// as a gap, and contributes nothing to its field.
func (a *Aggregator) Aggregate(ctx context.Context, user *canvas.User) Result {
	start := time.Now()
	defer func() {
		studentDuration.Observe(time.Since(start).Seconds())
	}()

	first, last := canvas.SplitName(user.Name, user.SortableName)
	a.logger.Info().
		Int64("user_id", user.ID).
		Str("name", first+" "+last).
		Msg("Processing student")

	enrollments, err := a.api.StudentEnrollments(ctx, user.ID)
	if err != nil {
		a.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Enrollment fetch failed")
		return Result{UserID: user.ID, Outcome: OutcomeFailed, Err: err}
	}
	a.logger.Info().
		Int64("user_id", user.ID).
		Int("enrollments", len(enrollments)).
		Msg("Found enrollments")

	summary := &Summary{
		FirstName:      first,
		LastName:       last,
		SISUserID:      user.SISUserID,
		Email:          user.BestEmail(),
		MetricsEnabled: a.includeAssignments,
	}

	gaps := 0
	courseIDs := make(map[int64]struct{})
	var states []string

	for _, enrollment := range enrollments {
		courseID := enrollment.CourseID
		if courseID == 0 {
			continue
		}
		courseIDs[courseID] = struct{}{}
		states = append(states, enrollment.EnrollmentState)

		if created, ok := parseTimestamp(enrollment.CreatedAt); ok {
			if summary.EnrollmentDate.IsZero() || created.Before(summary.EnrollmentDate) {
				summary.EnrollmentDate = created
			}
		}

		course := a.resolveCourse(ctx, courseID)
		if course == nil {
			gaps++
		} else {
			name := course.Name
			if name == "" {
				name = strconv.FormatInt(courseID, 10)
			}
			summary.CourseNames = append(summary.CourseNames, name)
		}

		if a.includeAssignments && course != nil {
			if !a.countAssignments(ctx, courseID, user.ID, summary) {
				gaps++
			}
		}
	}

	summary.TotalCourses = len(courseIDs)
	summary.EnrollmentStatus = rollupStatus(states)
	sort.Strings(summary.CourseNames)

	if !a.scanGuardians(ctx, user, courseIDs, summary) {
		gaps++
	}

	outcome := OutcomeOK
	if gaps > 0 {
		outcome = OutcomePartial
	}
	a.logger.Info().
		Int64("user_id", user.ID).
		Str("outcome", string(outcome)).
		Msg("Finished student")

	return Result{UserID: user.ID, Outcome: outcome, Summary: summary}
}

// resolveCourse returns the course from the per-run cache or the API.
// A fetch failure is non-fatal: it is logged and nil is returned.
func (a *Aggregator) resolveCourse(ctx context.Context, courseID int64) *canvas.Course {
	if course := a.courses.Get(courseID); course != nil {
		return course
	}

	course, err := a.api.Course(ctx, courseID)
	if err != nil {
		a.logger.Warn().Err(err).Int64("course_id", courseID).Msg("Failed to fetch course")
		return nil
	}
	a.courses.Put(course)
	return course
}

// countAssignments adds the course's assignment total and the student's
// completed-submission count to the summary. Returns false on any fetch
// failure; the failure affects this course only.
func (a *Aggregator) countAssignments(ctx context.Context, courseID, userID int64, summary *Summary) bool {
	assignments, err := a.api.CourseAssignments(ctx, courseID)
	if err != nil {
		a.logger.Warn().Err(err).Int64("course_id", courseID).Msg("Could not fetch assignments")
		return false
	}
	summary.TotalAssignments += len(assignments)

	submissions, err := a.api.StudentSubmissions(ctx, courseID, userID)
	if err != nil {
		a.logger.Warn().Err(err).Int64("course_id", courseID).Msg("Could not fetch submissions")
		return false
	}
	completed := 0
	for _, submission := range submissions {
		if submission.Complete() {
			completed++
		}
	}
	summary.CompletedAssignments += completed

	a.logger.Debug().
		Int64("course_id", courseID).
		Int("assignments", len(assignments)).
		Int("completed", completed).
		Msg("Counted assignment metrics")
	return true
}

// scanGuardians resolves guardian linkage by scanning observer enrollments
// of the student's first courses (ascending course id, capped). The first
// observer record matching the student flips ObserverLinked; guardian fields
// are first-write-wins per field, so later matches never overwrite. Any
// failure stops the scan, keeping whatever was found, and returns false.
func (a *Aggregator) scanGuardians(ctx context.Context, user *canvas.User, courseIDs map[int64]struct{}, summary *Summary) bool {
	ids := make([]int64, 0, len(courseIDs))
	for id := range courseIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > guardianScanLimit {
		ids = ids[:guardianScanLimit]
	}

	for _, courseID := range ids {
		pager := a.api.ObserverEnrollments(courseID)
		for pager.Next(ctx) {
			var observer canvas.ObserverEnrollment
			if err := json.Unmarshal(pager.Item(), &observer); err != nil {
				a.logger.Warn().Err(err).Int64("course_id", courseID).Msg("Skipping malformed observer record")
				continue
			}
			if observer.AssociatedUserID != user.ID {
				continue
			}

			summary.ObserverLinked = true
			if observer.User == nil {
				continue
			}
			parentFirst, parentLast := canvas.SplitName(observer.User.Name, observer.User.SortableName)
			if summary.ParentFirstName == "" {
				summary.ParentFirstName = parentFirst
			}
			if summary.ParentLastName == "" {
				summary.ParentLastName = parentLast
			}
			if summary.ParentEmail == "" {
				summary.ParentEmail = observer.User.BestEmail()
			}
		}
		if err := pager.Err(); err != nil {
			a.logger.Warn().Err(err).
				Int64("user_id", user.ID).
				Int64("course_id", courseID).
				Msg("Observer lookup failed")
			return false
		}
	}
	return true
}

// rollupStatus derives the single enrollment status from all per-course
// states: "active" wins outright; "completed" when every state is closed
// out; otherwise the sorted, de-duplicated, comma-joined non-empty states.
func rollupStatus(states []string) string {
	if len(states) == 0 {
		return ""
	}

	allClosed := true
	for _, state := range states {
		if state == "active" {
			return "active"
		}
		switch state {
		case "completed", "inactive", "deleted":
		default:
			allClosed = false
		}
	}
	if allClosed {
		return "completed"
	}

	seen := make(map[string]struct{})
	var distinct []string
	for _, state := range states {
		if state == "" {
			continue
		}
		if _, ok := seen[state]; ok {
			continue
		}
		seen[state] = struct{}{}
		distinct = append(distinct, state)
	}
	sort.Strings(distinct)
	return strings.Join(distinct, ",")
}

// parseTimestamp parses an ISO-8601 timestamp. Unparseable values are
// excluded from comparisons, not treated as errors.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
