// Package airtable reconciles exported CSV rows into an Airtable table:
// updates for known keys, creates for new ones, and optional soft-delete
// marking of records that disappeared from the export.
package airtable

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edusync/canvas-export/pkg/client"
)

const apiBase = "https://api.airtable.com/v0"

// listPageSize is Airtable's maximum page size for record listings.
const listPageSize = "100"

// Record is one Airtable record. ID is empty for records not yet created.
type Record struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

// recordPage is one page of the records listing; Offset is empty on the
// final page.
type recordPage struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client talks to one Airtable table.
type Client struct {
	http     *client.Client
	tableURL string
	logger   zerolog.Logger
}

// NewClient creates a client for the given base and table. Table names may
// contain spaces; the URL is escaped accordingly.
func NewClient(httpClient *client.Client, baseID, tableName string) (*Client, error) {
	if baseID == "" || tableName == "" {
		return nil, fmt.Errorf("base id and table name are required")
	}
	return &Client{
		http:     httpClient,
		tableURL: fmt.Sprintf("%s/%s/%s", apiBase, baseID, url.PathEscape(tableName)),
		logger:   log.With().Str("component", "airtable").Logger(),
	}, nil
}

// ListRecords pulls every record of the table via offset pagination.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	offset := ""
	for {
		params := url.Values{"pageSize": {listPageSize}}
		if offset != "" {
			params.Set("offset", offset)
		}

		var page recordPage
		if err := c.http.GetJSON(ctx, c.tableURL, params, &page); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		records = append(records, page.Records...)

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// keyOf extracts the trimmed unique-field value from a record's fields.
// Only string-valued keys participate in reconciliation.
func keyOf(fields map[string]any, uniqueField string) string {
	raw, ok := fields[uniqueField]
	if !ok {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
