// Package config loads environment-backed configuration, with optional
// .env file support for local runs.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Canvas holds the harvester's connection settings.
type Canvas struct {
	// APIURL is the API root, e.g. "https://school.instructure.com/api/v1".
	APIURL string
	// APIKey is the static bearer credential.
	APIKey string
	// AccountID scopes the student listing; "self" targets the token's account.
	AccountID string

	LogLevel  string
	LogPretty bool
}

// Airtable holds the sync utility's settings.
type Airtable struct {
	Token      string
	BaseID     string
	TableName  string
	CSVPath    string
	UniqueKey  string
	Typecast   bool
	SoftDelete bool

	LogLevel  string
	LogPretty bool
}

// loadDotEnv loads a .env file when present; a missing file is not an error.
func loadDotEnv() {
	if err := godotenv.Load(".env"); err == nil {
		log.Info().Msg("Loaded configuration from .env file")
	}
}

// LoadCanvas reads the harvester configuration from the environment.
func LoadCanvas() (*Canvas, error) {
	loadDotEnv()

	cfg := &Canvas{
		APIURL:    os.Getenv("CANVAS_API_URL"),
		APIKey:    os.Getenv("CANVAS_API_KEY"),
		AccountID: getEnv("CANVAS_ACCOUNT_ID", "self"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getBool("LOG_PRETTY", false),
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("CANVAS_API_URL is required but not set")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("CANVAS_API_KEY is required but not set")
	}
	return cfg, nil
}

// LoadAirtable reads the sync utility configuration from the environment.
func LoadAirtable() (*Airtable, error) {
	loadDotEnv()

	cfg := &Airtable{
		Token:      os.Getenv("AIRTABLE_PAT"),
		BaseID:     os.Getenv("AIRTABLE_BASE_ID"),
		TableName:  os.Getenv("AIRTABLE_TABLE_NAME"),
		CSVPath:    os.Getenv("CSV_PATH"),
		UniqueKey:  os.Getenv("UNIQUE_KEY"),
		Typecast:   getBool("AIRTABLE_TYPECAST", true),
		SoftDelete: getBool("AIRTABLE_SOFT_DELETE", false),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getBool("LOG_PRETTY", false),
	}

	for name, value := range map[string]string{
		"AIRTABLE_PAT":        cfg.Token,
		"AIRTABLE_BASE_ID":    cfg.BaseID,
		"AIRTABLE_TABLE_NAME": cfg.TableName,
		"CSV_PATH":            cfg.CSVPath,
		"UNIQUE_KEY":          cfg.UniqueKey,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s is required but not set", name)
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value == "true" || value == "1" || value == "yes"
}
