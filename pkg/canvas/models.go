package canvas

import "strings"

// User is one item of the account users listing. Immutable for the duration
// of a run.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SortableName string `json:"sortable_name"`
	SISUserID    string `json:"sis_user_id"`
	Email        string `json:"email"`
	LoginID      string `json:"login_id"`
}

// BestEmail returns the user's email, falling back to the login id.
func (u *User) BestEmail() string {
	if email := strings.TrimSpace(u.Email); email != "" {
		return email
	}
	return strings.TrimSpace(u.LoginID)
}

// Enrollment links a user to a course with a lifecycle state.
type Enrollment struct {
	CourseID        int64  `json:"course_id"`
	EnrollmentState string `json:"enrollment_state"`
	CreatedAt       string `json:"created_at"`
}

// Course carries the subset of course fields the exporter reads.
type Course struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Assignment is counted, never retained individually.
type Assignment struct {
	ID int64 `json:"id"`
}

// Submission is evaluated against the completion predicate and discarded.
type Submission struct {
	SubmittedAt   string `json:"submitted_at"`
	WorkflowState string `json:"workflow_state"`
}

// Complete reports whether the submission counts as a completed assignment:
// it carries a submission timestamp, or was submitted or graded.
func (s *Submission) Complete() bool {
	if s.SubmittedAt != "" {
		return true
	}
	return s.WorkflowState == "submitted" || s.WorkflowState == "graded"
}

// ObserverEnrollment associates a guardian account with a student, scoped to
// one course.
type ObserverEnrollment struct {
	AssociatedUserID int64 `json:"associated_user_id"`
	User             *User `json:"user"`
}

// SplitName derives (first, last) from Canvas' name pair. The sortable name
// ("Last, First") is authoritative when present; otherwise the display name
// is split on its final token.
func SplitName(name, sortableName string) (string, string) {
	sortable := strings.TrimSpace(sortableName)
	if sortable != "" && strings.Contains(sortable, ",") {
		last, first, _ := strings.Cut(sortable, ",")
		return strings.TrimSpace(first), strings.TrimSpace(last)
	}

	display := strings.TrimSpace(name)
	if display == "" {
		return "", ""
	}
	parts := strings.Fields(display)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
