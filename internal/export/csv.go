package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// SummaryDataset lays the successful results out as a dataset in emission
// order. Failed students contribute no row.
func SummaryDataset(results []Result) Dataset {
	data := Dataset{Headers: Columns()}
	for _, result := range results {
		if result.Summary == nil {
			continue
		}
		data.Rows = append(data.Rows, result.Summary.Row())
	}
	return data
}

// RenderCSV produces CSV encoded bytes for the dataset.
func RenderCSV(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCSVFile renders the dataset and writes it to path.
func WriteCSVFile(path string, data Dataset) error {
	rendered, err := RenderCSV(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return fmt.Errorf("write csv file: %w", err)
	}
	return nil
}
