// Package testutil provides a configurable mock Canvas server for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// MockCanvas is a configurable mock Canvas API server.
type MockCanvas struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc

	// RequestCount tracks all requests across paths.
	RequestCount int
	// PathCounts tracks requests per path.
	PathCounts map[string]int
}

// NewMockCanvas creates a new mock server. Paths without a registered
// handler answer 404 with a JSON error body.
func NewMockCanvas() *MockCanvas {
	mock := &MockCanvas{
		handlers:   make(map[string]http.HandlerFunc),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"errors":[{"message":"The specified resource does not exist."}]}`)
	}))

	return mock
}

// URL returns the mock server URL; it doubles as the API base URL.
func (m *MockCanvas) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCanvas) Close() {
	m.server.Close()
}

// Requests returns the number of requests made to a path.
func (m *MockCanvas) Requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PathCounts[path]
}

// SetHandler sets a custom handler for a path.
func (m *MockCanvas) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetJSON serves a fixed 200 JSON body for a path.
func (m *MockCanvas) SetJSON(path, body string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	})
}

// SetPages serves the given JSON bodies as a paginated listing chained via
// Link headers: each page except the last advertises rel="next" pointing at
// the following page.
func (m *MockCanvas) SetPages(path string, pages ...string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
				page = n
			}
		}
		if page > len(pages) {
			page = len(pages)
		}

		link := fmt.Sprintf(`<%s%s?page=%d>; rel="current"`, m.server.URL, path, page)
		if page < len(pages) {
			link += fmt.Sprintf(`, <%s%s?page=%d>; rel="next"`, m.server.URL, path, page+1)
		}
		w.Header().Set("Link", link)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, pages[page-1])
	})
}

// SetStatusSequence answers with each status in order, one per request,
// repeating the last status once the sequence is spent. Statuses below 400
// serve body with a 200-family status.
func (m *MockCanvas) SetStatusSequence(path, body string, statuses ...int) {
	var mu sync.Mutex
	calls := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		status := statuses[len(statuses)-1]
		if calls < len(statuses) {
			status = statuses[calls]
		}
		calls++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status < 400 {
			fmt.Fprint(w, body)
		} else {
			fmt.Fprintf(w, `{"error":"status %d"}`, status)
		}
	})
}
