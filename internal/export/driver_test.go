package export

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusync/canvas-export/internal/testutil"
	"github.com/edusync/canvas-export/pkg/cache"
)

func setupStudentCourses(mock *testutil.MockCanvas, userID, courseID int64, courseName string) {
	mock.SetJSON(fmt.Sprintf("/users/%d/enrollments", userID), fmt.Sprintf(`[
		{"course_id":%d,"enrollment_state":"active","created_at":"2023-01-10T00:00:00Z"}
	]`, courseID))
	mock.SetJSON(fmt.Sprintf("/courses/%d", courseID), fmt.Sprintf(`{"id":%d,"name":"%s"}`, courseID, courseName))
	mock.SetJSON(fmt.Sprintf("/courses/%d/enrollments", courseID), `[]`)
}

func TestDriver_Run(t *testing.T) {
	mock := testutil.NewMockCanvas()
	defer mock.Close()
	mock.SetJSON("/accounts/self/users", `[
		{"id":1,"name":"Ana Hoxha","sortable_name":"Hoxha, Ana"},
		{"id":2,"name":"Blerim Gashi","sortable_name":"Gashi, Blerim"},
		{"id":3,"name":"Clirim Berisha","sortable_name":"Berisha, Clirim"}
	]`)
	setupStudentCourses(mock, 1, 401, "Course A")
	// Student 3 has no enrollment handler: the aggregation fails but the
	// run continues.

	api := newTestAPI(t, mock)
	driver := NewDriver(api, NewAggregator(api, cache.NewCourseCache(), false), NewIdentityFilter([]int64{1, 3}, nil))

	results, report, err := driver.Run(context.Background(), "self")
	require.NoError(t, err)

	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Partial)

	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].UserID)
	assert.Equal(t, OutcomeOK, results[0].Outcome)
	assert.Equal(t, int64(3), results[1].UserID)
	assert.Equal(t, OutcomeFailed, results[1].Outcome)
	assert.Nil(t, results[1].Summary)
}

func TestDriver_Run_PaginatedListing(t *testing.T) {
	mock := testutil.NewMockCanvas()
	defer mock.Close()
	mock.SetPages("/accounts/self/users",
		`[{"id":1,"name":"Ana Hoxha","sortable_name":"Hoxha, Ana"}]`,
		`[{"id":2,"name":"Blerim Gashi","sortable_name":"Gashi, Blerim"}]`,
	)
	setupStudentCourses(mock, 1, 401, "Course A")
	setupStudentCourses(mock, 2, 402, "Course B")

	api := newTestAPI(t, mock)
	driver := NewDriver(api, NewAggregator(api, cache.NewCourseCache(), false), NewIdentityFilter(nil, nil))

	results, report, err := driver.Run(context.Background(), "self")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Matched)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].UserID)
	assert.Equal(t, int64(2), results[1].UserID)
}

func TestDriver_Run_SkipsIncompleteRecords(t *testing.T) {
	mock := testutil.NewMockCanvas()
	defer mock.Close()
	mock.SetJSON("/accounts/self/users", `[
		{"name":"No Id"},
		{"id":2,"name":"Blerim Gashi","sortable_name":"Gashi, Blerim"}
	]`)
	setupStudentCourses(mock, 2, 402, "Course B")

	api := newTestAPI(t, mock)
	driver := NewDriver(api, NewAggregator(api, cache.NewCourseCache(), false), NewIdentityFilter(nil, nil))

	results, report, err := driver.Run(context.Background(), "self")
	require.NoError(t, err)

	// The id-less record is scanned but contributes no result.
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Matched)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].UserID)
}

func TestDriver_Run_ListingFailure(t *testing.T) {
	mock := testutil.NewMockCanvas()
	defer mock.Close()
	// No listing handler: the mock answers 404.

	api := newTestAPI(t, mock)
	driver := NewDriver(api, NewAggregator(api, cache.NewCourseCache(), false), NewIdentityFilter(nil, nil))

	results, report, err := driver.Run(context.Background(), "self")
	require.Error(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, report.Scanned)
}
