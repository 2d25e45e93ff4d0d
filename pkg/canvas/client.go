// Package canvas exposes the Canvas LMS REST resources the exporter
// consumes as typed, paginated queries. It holds no business logic: each
// method composes one resource URL with its fixed query parameters.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/edusync/canvas-export/pkg/client"
	"github.com/edusync/canvas-export/pkg/pagination"
)

// DefaultPerPage is the page size requested from every listing endpoint.
const DefaultPerPage = 100

// Client is a stateless set of resource queries against one Canvas instance.
type Client struct {
	http    *client.Client
	baseURL string
	perPage int
}

// NewClient creates a Canvas API client. baseURL points at the API root,
// e.g. "https://school.instructure.com/api/v1".
func NewClient(httpClient *client.Client, baseURL string, perPage int) *Client {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: perPage,
	}
}

// Students streams the account's users filtered to student enrollments.
func (c *Client) Students(accountID string) *pagination.Pager {
	params := url.Values{
		"enrollment_type[]": {"student"},
	}
	return c.list(fmt.Sprintf("%s/accounts/%s/users", c.baseURL, accountID), params)
}

// StudentEnrollments lists a user's student-type enrollments with grades.
func (c *Client) StudentEnrollments(ctx context.Context, userID int64) ([]Enrollment, error) {
	params := url.Values{
		"type[]":    {"StudentEnrollment"},
		"include[]": {"grades"},
	}
	pager := c.list(fmt.Sprintf("%s/users/%d/enrollments", c.baseURL, userID), params)
	return collect[Enrollment](ctx, pager)
}

// Course fetches a single course by id.
func (c *Client) Course(ctx context.Context, courseID int64) (*Course, error) {
	var course Course
	target := fmt.Sprintf("%s/courses/%d", c.baseURL, courseID)
	if err := c.http.GetJSON(ctx, target, nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// CourseAssignments lists a course's assignments.
func (c *Client) CourseAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	pager := c.list(fmt.Sprintf("%s/courses/%d/assignments", c.baseURL, courseID), nil)
	return collect[Assignment](ctx, pager)
}

// StudentSubmissions lists a course's submissions scoped to one student,
// including submission history.
func (c *Client) StudentSubmissions(ctx context.Context, courseID, userID int64) ([]Submission, error) {
	params := url.Values{
		"student_ids[]": {strconv.FormatInt(userID, 10)},
		"include[]":     {"submission_history"},
	}
	pager := c.list(fmt.Sprintf("%s/courses/%d/students/submissions", c.baseURL, courseID), params)
	return collect[Submission](ctx, pager)
}

// ObserverEnrollments streams a course's observer enrollments with the
// linked user record expanded.
func (c *Client) ObserverEnrollments(courseID int64) *pagination.Pager {
	params := url.Values{
		"type[]":    {"ObserverEnrollment"},
		"include[]": {"user"},
	}
	return c.list(fmt.Sprintf("%s/courses/%d/enrollments", c.baseURL, courseID), params)
}

// list builds a pager with the shared page-size parameter applied.
func (c *Client) list(target string, params url.Values) *pagination.Pager {
	if params == nil {
		params = url.Values{}
	}
	params.Set("per_page", strconv.Itoa(c.perPage))
	return pagination.New(c.http, target, params)
}

// collect drains a pager, decoding every item into T.
func collect[T any](ctx context.Context, pager *pagination.Pager) ([]T, error) {
	var out []T
	for pager.Next(ctx) {
		var item T
		if err := json.Unmarshal(pager.Item(), &item); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		out = append(out, item)
	}
	if err := pager.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
