package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCanvas(t *testing.T) {
	t.Setenv("CANVAS_API_URL", "https://school.instructure.com/api/v1")
	t.Setenv("CANVAS_API_KEY", "secret")

	cfg, err := LoadCanvas()
	require.NoError(t, err)

	assert.Equal(t, "https://school.instructure.com/api/v1", cfg.APIURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "self", cfg.AccountID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
}

func TestLoadCanvas_MissingKey(t *testing.T) {
	t.Setenv("CANVAS_API_URL", "https://school.instructure.com/api/v1")
	t.Setenv("CANVAS_API_KEY", "")

	_, err := LoadCanvas()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CANVAS_API_KEY")
}

func TestLoadCanvas_Overrides(t *testing.T) {
	t.Setenv("CANVAS_API_URL", "https://school.instructure.com/api/v1")
	t.Setenv("CANVAS_API_KEY", "secret")
	t.Setenv("CANVAS_ACCOUNT_ID", "42")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "yes")

	cfg, err := LoadCanvas()
	require.NoError(t, err)

	assert.Equal(t, "42", cfg.AccountID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestLoadAirtable(t *testing.T) {
	t.Setenv("AIRTABLE_PAT", "pat-token")
	t.Setenv("AIRTABLE_BASE_ID", "appBase123")
	t.Setenv("AIRTABLE_TABLE_NAME", "Student Summaries")
	t.Setenv("CSV_PATH", "Students_AllInOne.csv")
	t.Setenv("UNIQUE_KEY", "Email")

	cfg, err := LoadAirtable()
	require.NoError(t, err)

	assert.Equal(t, "pat-token", cfg.Token)
	assert.Equal(t, "Student Summaries", cfg.TableName)
	assert.True(t, cfg.Typecast, "typecast defaults on")
	assert.False(t, cfg.SoftDelete, "soft delete defaults off")
}

func TestLoadAirtable_MissingRequired(t *testing.T) {
	t.Setenv("AIRTABLE_PAT", "pat-token")
	t.Setenv("AIRTABLE_BASE_ID", "")
	t.Setenv("AIRTABLE_TABLE_NAME", "Student Summaries")
	t.Setenv("CSV_PATH", "out.csv")
	t.Setenv("UNIQUE_KEY", "Email")

	_, err := LoadAirtable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AIRTABLE_BASE_ID")
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"TRUE", false, true},
		{"false", true, false},
		{"off", true, false},
	}

	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, getBool("TEST_BOOL", tt.fallback))
		})
	}
}
