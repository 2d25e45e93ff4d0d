// airtable-sync upserts an exported CSV into an Airtable table, keyed on a
// unique field, optionally soft-deleting records missing from the CSV.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/edusync/canvas-export/internal/airtable"
	"github.com/edusync/canvas-export/internal/config"
	"github.com/edusync/canvas-export/pkg/client"
	"github.com/edusync/canvas-export/pkg/logging"
)

func main() {
	cfg, err := config.LoadAirtable()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	httpClient, err := client.New(client.DefaultConfig(cfg.Token))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create HTTP client")
	}

	table, err := airtable.NewClient(httpClient, cfg.BaseID, cfg.TableName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Airtable client")
	}

	rows, err := airtable.LoadCSV(cfg.CSVPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read CSV")
	}

	report, err := table.Sync(context.Background(), rows, airtable.SyncConfig{
		UniqueField: cfg.UniqueKey,
		Typecast:    cfg.Typecast,
		SoftDelete:  cfg.SoftDelete,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	log.Info().
		Int("updated", report.Updated).
		Int("created", report.Created).
		Int("deactivated", report.Deactivated).
		Msg("Sync complete")
}
