package ingest

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/sgs-labs/geoingest/internal/geo"
)

// Config holds everything the pipeline needs from its environment.
type Config struct {
	// DatabaseURL is the Postgres DSN of the spatial store.
	DatabaseURL string

	// DataDir is scanned for source files by Run.
	DataDir string

	// Bounds override the plausible coordinate envelope.
	Bounds geo.Bounds

	// DialectsPath optionally points at a YAML carrier-dialect file;
	// empty means the compiled-in defaults.
	DialectsPath string

	// CSVLatin1 transcodes carrier CSVs from Windows-1252.
	CSVLatin1 bool
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingDataDir     = errors.New("INGEST_DATA_DIR is required")
)

// LoadFromEnv loads pipeline configuration from environment variables.
//
// Environment variables:
//   - DATABASE_URL: Postgres DSN (required)
//   - INGEST_DATA_DIR: directory holding source files (required for Run)
//   - INGEST_DIALECTS: optional YAML carrier-dialect file
//   - INGEST_CSV_LATIN1: "true" to transcode Windows-1252 CSV exports
//   - INGEST_BOUNDS_MIN_LAT / MAX_LAT / MIN_LON / MAX_LON: envelope overrides
func LoadFromEnv() Config {
	cfg := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DataDir:      os.Getenv("INGEST_DATA_DIR"),
		Bounds:       geo.AustraliaBounds(),
		DialectsPath: os.Getenv("INGEST_DIALECTS"),
	}
	if v := strings.ToLower(os.Getenv("INGEST_CSV_LATIN1")); v == "true" || v == "1" {
		cfg.CSVLatin1 = true
	}
	envFloat("INGEST_BOUNDS_MIN_LAT", &cfg.Bounds.MinLat)
	envFloat("INGEST_BOUNDS_MAX_LAT", &cfg.Bounds.MaxLat)
	envFloat("INGEST_BOUNDS_MIN_LON", &cfg.Bounds.MinLon)
	envFloat("INGEST_BOUNDS_MAX_LON", &cfg.Bounds.MaxLon)
	return cfg
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate checks the configuration is usable for a full run.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.DataDir == "" {
		return ErrMissingDataDir
	}
	return nil
}
