package client

import (
	"errors"
	"strings"
	"testing"
)

func TestIsTransientStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{status: 429, want: true},
		{status: 500, want: true},
		{status: 502, want: true},
		{status: 503, want: true},
		{status: 504, want: true},
		{status: 200, want: false},
		{status: 400, want: false},
		{status: 401, want: false},
		{status: 403, want: false},
		{status: 404, want: false},
		{status: 501, want: false},
	}

	for _, tt := range tests {
		if got := IsTransientStatus(tt.status); got != tt.want {
			t.Errorf("IsTransientStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestUpstreamError_Error(t *testing.T) {
	transient := &UpstreamError{StatusCode: 503, Body: "overloaded", Transient: true}
	if !strings.Contains(transient.Error(), "transient") || !strings.Contains(transient.Error(), "503") {
		t.Errorf("Error() = %q", transient.Error())
	}

	permanent := &UpstreamError{StatusCode: 404, Body: "not found"}
	if !strings.Contains(permanent.Error(), "permanent") || !strings.Contains(permanent.Error(), "404") {
		t.Errorf("Error() = %q", permanent.Error())
	}
}

func TestUpstreamError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &UpstreamError{StatusCode: 500, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("UpstreamError should unwrap to the inner error")
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("x", bodyExcerptLimit+100)
	if got := excerpt([]byte(long)); len(got) != bodyExcerptLimit {
		t.Errorf("excerpt length = %d, want %d", len(got), bodyExcerptLimit)
	}
	if got := excerpt([]byte("short")); got != "short" {
		t.Errorf("excerpt = %q", got)
	}
}
