package export

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Output column names, in schema order. Column naming follows the
// downstream sheet the summaries are loaded into.
const (
	ColFirstName        = "Student First Name"
	ColLastName         = "Student Last Name"
	ColSISID            = "Student ID nese ka (per SCS)"
	ColGradeLevel       = "Grade Level"
	ColDateOfBirth      = "Student Date of Birth"
	ColEmail            = "Email"
	ColParentFirstName  = "Parent First Name"
	ColParentLastName   = "Parent Last Name"
	ColParentEmail      = "Parent Email"
	ColParentPhone      = "Parent Phone Number"
	ColParentBirth      = "Parent Date of Birth"
	ColAddress          = "Address"
	ColEnrollmentDate   = "Enrollment Date"
	ColObserverLinked   = "Observer Account linked with student"
	ColTotalAssignments = "Total number of assignments"
	ColCompleted        = "Completed ones"
	ColTotalCourses     = "Total courses enrolled"
	ColProgress         = "Progress"
	ColEnrollmentStatus = "Enrollment status"
	ColCourseNames      = "Course Names"
)

// Columns returns the output schema in emission order.
func Columns() []string {
	return []string{
		ColFirstName, ColLastName, ColSISID,
		ColGradeLevel, ColDateOfBirth, ColEmail,
		ColParentFirstName, ColParentLastName, ColParentEmail,
		ColParentPhone, ColParentBirth, ColAddress,
		ColEnrollmentDate, ColObserverLinked,
		ColTotalAssignments, ColCompleted,
		ColTotalCourses, ColProgress, ColEnrollmentStatus, ColCourseNames,
	}
}

// Summary is the flattened per-student output record. It is assembled once,
// after all fetches, and never mutated afterwards.
type Summary struct {
	FirstName string
	LastName  string
	SISUserID string
	Email     string

	ParentFirstName string
	ParentLastName  string
	ParentEmail     string
	ObserverLinked  bool

	// EnrollmentDate is the earliest parseable enrollment creation time.
	// Zero means no parseable timestamp was seen.
	EnrollmentDate time.Time

	EnrollmentStatus string
	TotalCourses     int
	CourseNames      []string

	// Assignment metrics are populated only when harvesting was enabled.
	MetricsEnabled       bool
	TotalAssignments     int
	CompletedAssignments int
}

// Progress returns the completion percentage rounded to two decimals.
// The second return is false when metrics are disabled or no assignments
// exist; the output field stays empty in that case, never zero.
func (s *Summary) Progress() (float64, bool) {
	if !s.MetricsEnabled || s.TotalAssignments <= 0 {
		return 0, false
	}
	pct := 100.0 * float64(s.CompletedAssignments) / float64(s.TotalAssignments)
	return math.Round(pct*100) / 100, true
}

// Row renders the summary as a column → value mapping for the CSV layer.
func (s *Summary) Row() map[string]string {
	row := map[string]string{
		ColFirstName:        s.FirstName,
		ColLastName:         s.LastName,
		ColSISID:            s.SISUserID,
		ColGradeLevel:       "",
		ColDateOfBirth:      "",
		ColEmail:            s.Email,
		ColParentFirstName:  s.ParentFirstName,
		ColParentLastName:   s.ParentLastName,
		ColParentEmail:      s.ParentEmail,
		ColParentPhone:      "",
		ColParentBirth:      "",
		ColAddress:          "",
		ColEnrollmentDate:   "",
		ColObserverLinked:   "No",
		ColTotalAssignments: "",
		ColCompleted:        "",
		ColTotalCourses:     strconv.Itoa(s.TotalCourses),
		ColProgress:         "",
		ColEnrollmentStatus: s.EnrollmentStatus,
		ColCourseNames:      strings.Join(s.CourseNames, "; "),
	}

	if !s.EnrollmentDate.IsZero() {
		row[ColEnrollmentDate] = s.EnrollmentDate.Format(time.RFC3339)
	}
	if s.ObserverLinked {
		row[ColObserverLinked] = "Yes"
	}
	if s.MetricsEnabled {
		row[ColTotalAssignments] = strconv.Itoa(s.TotalAssignments)
		row[ColCompleted] = strconv.Itoa(s.CompletedAssignments)
	}
	if pct, ok := s.Progress(); ok {
		row[ColProgress] = strconv.FormatFloat(pct, 'f', 2, 64)
	}
	return row
}
