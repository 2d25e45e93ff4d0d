package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryDataset(t *testing.T) {
	results := []Result{
		{UserID: 1, Outcome: OutcomeOK, Summary: &Summary{FirstName: "Ana", TotalCourses: 1}},
		{UserID: 2, Outcome: OutcomeFailed},
		{UserID: 3, Outcome: OutcomePartial, Summary: &Summary{FirstName: "Blerim", TotalCourses: 2}},
	}

	data := SummaryDataset(results)
	assert.Equal(t, Columns(), data.Headers)
	require.Len(t, data.Rows, 2, "failed students contribute no row")
	assert.Equal(t, "Ana", data.Rows[0][ColFirstName])
	assert.Equal(t, "Blerim", data.Rows[1][ColFirstName])
}

func TestRenderCSV(t *testing.T) {
	data := Dataset{
		Headers: []string{"a", "b"},
		Rows: []map[string]string{
			{"a": "1", "b": "two, with comma"},
			{"a": "3"},
		},
	}

	rendered, err := RenderCSV(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(rendered), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a,b", lines[0])
	assert.Equal(t, `1,"two, with comma"`, lines[1])
	assert.Equal(t, "3,", lines[2])
}

func TestRenderCSV_NoHeaders(t *testing.T) {
	_, err := RenderCSV(Dataset{})
	assert.Error(t, err)
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	data := Dataset{Headers: []string{"a"}, Rows: []map[string]string{{"a": "1"}}}

	require.NoError(t, WriteCSVFile(path, data))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(content))
}
