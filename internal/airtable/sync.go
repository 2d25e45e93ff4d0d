package airtable

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
)

// batchSize is Airtable's per-request record limit for writes.
const batchSize = 10

// SyncConfig controls one reconciliation run.
type SyncConfig struct {
	// UniqueField decides update vs create; rows without it are skipped.
	UniqueField string

	// Typecast lets Airtable coerce values to the table's field types.
	Typecast bool

	// SoftDelete marks records missing from the CSV with Active=false
	// instead of leaving them untouched. Requires an Active checkbox on
	// the table; failures skip the step without failing the run.
	SoftDelete bool
}

// SyncReport summarizes one reconciliation run.
type SyncReport struct {
	Updated     int
	Created     int
	Deactivated int
}

// writePayload is the request body shared by PATCH and POST writes.
type writePayload struct {
	Records  []Record `json:"records"`
	Typecast bool     `json:"typecast"`
}

// Sync reconciles rows into the table: existing keys are updated in place,
// new keys created, and (optionally) records absent from rows soft-deleted.
func (c *Client) Sync(ctx context.Context, rows []map[string]string, cfg SyncConfig) (SyncReport, error) {
	var report SyncReport
	if cfg.UniqueField == "" {
		return report, fmt.Errorf("unique field is required")
	}
	if len(rows) == 0 {
		c.logger.Warn().Msg("No rows to sync")
		return report, nil
	}

	existing, err := c.ListRecords(ctx)
	if err != nil {
		return report, err
	}
	existingIDs := make(map[string]string, len(existing))
	for _, record := range existing {
		if key := keyOf(record.Fields, cfg.UniqueField); key != "" {
			existingIDs[key] = record.ID
		}
	}

	var updates, creates []Record
	currentKeys := make(map[string]struct{})
	for _, row := range rows {
		fields := cleanFields(row)
		key := keyOf(fields, cfg.UniqueField)
		if key == "" {
			continue
		}
		currentKeys[key] = struct{}{}
		if id, ok := existingIDs[key]; ok {
			updates = append(updates, Record{ID: id, Fields: fields})
		} else {
			creates = append(creates, Record{Fields: fields})
		}
	}

	if err := c.writeBatches(ctx, http.MethodPatch, updates, cfg.Typecast); err != nil {
		return report, fmt.Errorf("patch updates: %w", err)
	}
	report.Updated = len(updates)

	if err := c.writeBatches(ctx, http.MethodPost, creates, cfg.Typecast); err != nil {
		return report, fmt.Errorf("post creates: %w", err)
	}
	report.Created = len(creates)

	c.logger.Info().
		Int("updated", report.Updated).
		Int("created", report.Created).
		Msg("Upsert complete")

	if cfg.SoftDelete {
		report.Deactivated = c.softDelete(ctx, currentKeys, cfg.UniqueField)
	}
	return report, nil
}

// writeBatches sends records in Airtable-sized batches.
func (c *Client) writeBatches(ctx context.Context, method string, records []Record, typecast bool) error {
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		payload := writePayload{Records: records[start:end], Typecast: typecast}
		if err := c.http.SendJSON(ctx, method, c.tableURL, payload, nil); err != nil {
			return err
		}
		c.logger.Debug().
			Str("method", method).
			Int("batch", start/batchSize+1).
			Int("records", end-start).
			Msg("Batch written")
	}
	return nil
}

// softDelete marks table records whose key is absent from currentKeys with
// Active=false. Any failure logs a warning and abandons the step; the sync
// itself stays successful.
func (c *Client) softDelete(ctx context.Context, currentKeys map[string]struct{}, uniqueField string) int {
	records, err := c.ListRecords(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Soft-delete skipped: could not list records")
		return 0
	}

	var stale []Record
	for _, record := range records {
		key := keyOf(record.Fields, uniqueField)
		if key == "" {
			continue
		}
		if _, ok := currentKeys[key]; !ok {
			stale = append(stale, Record{ID: record.ID, Fields: map[string]any{"Active": false}})
		}
	}

	if err := c.writeBatches(ctx, http.MethodPatch, stale, true); err != nil {
		c.logger.Warn().Err(err).Msg("Soft-delete skipped: add an 'Active' checkbox to the table")
		return 0
	}
	c.logger.Info().Int("deactivated", len(stale)).Msg("Soft-delete complete")
	return len(stale)
}

// cleanFields converts a CSV row to Airtable fields, mapping empty strings
// to nil so Airtable can clear or ignore them.
func cleanFields(row map[string]string) map[string]any {
	fields := make(map[string]any, len(row))
	for key, value := range row {
		if value == "" {
			fields[key] = nil
		} else {
			fields[key] = value
		}
	}
	return fields
}

// LoadCSV reads a CSV file into one map per row, keyed by header.
func LoadCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) < 1 {
		return nil, fmt.Errorf("csv %s has no header row", path)
	}

	headers := all[0]
	rows := make([]map[string]string, 0, len(all)-1)
	for _, record := range all[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
