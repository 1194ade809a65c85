package db

import "gorm.io/gorm"

// EnsureSchema creates the canonical tables and indexes on first run.
// IF NOT EXISTS keeps it idempotent against an already-provisioned store.
func EnsureSchema(d *gorm.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS canonical_sites (
			site_id TEXT NOT NULL,
			carrier TEXT NOT NULL,
			site_name TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			location geometry(Point,4326) NOT NULL,
			location_grid geometry(Point,7856) NOT NULL,
			frequency_bands TEXT[] NOT NULL DEFAULT '{}',
			technology TEXT NOT NULL DEFAULT 'Unknown',
			operational_status TEXT NOT NULL DEFAULT 'Active',
			site_type TEXT NOT NULL DEFAULT 'Standard',
			data_source TEXT NOT NULL DEFAULT '',
			last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (site_id, carrier)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sites_location ON canonical_sites USING GIST (location)`,
		`CREATE INDEX IF NOT EXISTS idx_sites_carrier ON canonical_sites (carrier)`,
		`CREATE TABLE IF NOT EXISTS coverage_areas (
			id UUID PRIMARY KEY,
			source_kind TEXT NOT NULL,
			carrier TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			technology TEXT NOT NULL DEFAULT '',
			coverage_type TEXT NOT NULL,
			signal_strength TEXT NOT NULL DEFAULT '',
			geometry geometry(Geometry,4326) NOT NULL,
			area_sqkm DOUBLE PRECISION NOT NULL DEFAULT 0,
			data_source TEXT NOT NULL DEFAULT '',
			last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_coverage_scope ON coverage_areas (source_kind, coverage_type)`,
		`CREATE INDEX IF NOT EXISTS idx_coverage_geometry ON coverage_areas USING GIST (geometry)`,
	}
	for _, s := range stmts {
		if err := d.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
