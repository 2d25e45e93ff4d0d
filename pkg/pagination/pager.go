// Package pagination follows Link-header cursor pagination: the "next"
// relation of each response is requested until no such relation remains.
//
// Example usage:
//
//	pager := pagination.New(httpClient, url, params)
//	for pager.Next(ctx) {
//		var course Course
//		_ = json.Unmarshal(pager.Item(), &course)
//	}
//	if err := pager.Err(); err != nil {
//		return err
//	}
//
// The pager is a lazy, finite, non-restartable sequence: each page is
// requested only when iteration reaches it, and a consumed pager cannot be
// rewound.
package pagination

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fetcher issues a single GET request. *client.Client satisfies this.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error)
}

// Pager iterates over the items of a paginated listing.
type Pager struct {
	fetcher Fetcher
	logger  zerolog.Logger

	nextURL string
	// params apply to the first request only; every later request uses the
	// "next" URL verbatim since the link already encodes the query.
	params url.Values

	items []json.RawMessage
	pos   int
	item  json.RawMessage
	done  bool
	err   error
}

// New creates a pager for the given listing URL.
func New(fetcher Fetcher, rawURL string, params url.Values) *Pager {
	return &Pager{
		fetcher: fetcher,
		logger:  log.With().Str("component", "pager").Logger(),
		nextURL: rawURL,
		params:  params,
	}
}

// Next advances to the next item, requesting further pages as needed.
// It returns false when the sequence is exhausted or a fetch failed; the
// caller must check Err afterwards.
func (p *Pager) Next(ctx context.Context) bool {
	if p.err != nil {
		return false
	}

	for p.pos >= len(p.items) {
		if p.done {
			return false
		}
		if err := p.fetchPage(ctx); err != nil {
			p.err = err
			return false
		}
	}

	p.item = p.items[p.pos]
	p.pos++
	return true
}

// Item returns the current page item. Only valid after Next returned true.
func (p *Pager) Item() json.RawMessage {
	return p.item
}

// Err returns the first fetch or decode error encountered.
func (p *Pager) Err() error {
	return p.err
}

// fetchPage requests the next page and appends its items.
func (p *Pager) fetchPage(ctx context.Context) error {
	resp, err := p.fetcher.Get(ctx, p.nextURL, p.params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	p.params = nil

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read page body: %w", err)
	}

	items, err := splitItems(body)
	if err != nil {
		return fmt.Errorf("decode page body: %w", err)
	}
	p.items = append(p.items, items...)

	links := ParseLinkHeader(resp.Header.Get("Link"))
	next, ok := links["next"]
	if !ok {
		p.done = true
		return nil
	}
	p.logger.Debug().Str("next", next).Msg("Following next page link")
	p.nextURL = next
	return nil
}

// splitItems yields each element of a JSON array individually, preserving
// server order. A non-array body is yielded as one item, for the few
// endpoints that return a single object.
func splitItems(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}

// Collect drains the pager into a slice. Intended for small listings and
// tests; production paths iterate lazily.
func Collect(ctx context.Context, p *Pager) ([]json.RawMessage, error) {
	var items []json.RawMessage
	for p.Next(ctx) {
		items = append(items, p.Item())
	}
	return items, p.Err()
}
