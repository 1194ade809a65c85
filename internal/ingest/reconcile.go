package ingest

import (
	"context"

	"gorm.io/gorm"
)

// WriteMode tags a coverage batch with its reconciliation semantics. The
// engine never infers the mode from which adapter produced the rows.
type WriteMode struct {
	replace    bool
	sourceKind string
	category   string
}

// ReplaceScope atomically supersedes every stored row matching
// (sourceKind, category) with the batch. Snapshot-style sources use this:
// a fresh file replaces the prior drop for its category only.
func ReplaceScope(sourceKind, category string) WriteMode {
	return WriteMode{replace: true, sourceKind: sourceKind, category: category}
}

// Append adds the batch without touching existing rows. Overlay sources
// have no natural key across runs; re-ingesting the same file duplicates
// rows, which is accepted behavior.
func Append() WriteMode {
	return WriteMode{}
}

// IsReplace reports whether the mode supersedes an existing scope.
func (m WriteMode) IsReplace() bool { return m.replace }

// Scope returns the (source kind, category) filter of a replace mode.
func (m WriteMode) Scope() (string, string) { return m.sourceKind, m.category }

// BatchResult reports what one file's batch did to the store.
type BatchResult struct {
	Inserted int
	Updated  int
	Appended int
	Replaced int
}

// Engine performs idempotent reconciliation of canonical entities into the
// store. Each call is one transaction: a store failure rolls the whole
// file's batch back and nothing partial becomes visible.
type Engine struct {
	db *gorm.DB
}

func NewEngine(d *gorm.DB) *Engine { return &Engine{db: d} }

// Site upsert. Every field is last-writer-wins except site_type: an
// incoming NULL keeps whatever classification is already stored, so an
// incomplete later source cannot erase a recorded co-funding. The insert
// path defaults an unspecified site_type to Standard. xmax = 0 is true
// only for freshly inserted rows, which is how inserts are told from
// updates.
const upsertSiteSQL = `
INSERT INTO canonical_sites (
	site_id, carrier, site_name, latitude, longitude,
	location, location_grid, frequency_bands, technology,
	operational_status, site_type, data_source, last_updated
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, 'Standard'), ?, ?)
ON CONFLICT (site_id, carrier) DO UPDATE SET
	site_name = EXCLUDED.site_name,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	location = EXCLUDED.location,
	location_grid = EXCLUDED.location_grid,
	frequency_bands = EXCLUDED.frequency_bands,
	technology = EXCLUDED.technology,
	operational_status = EXCLUDED.operational_status,
	site_type = COALESCE(?, canonical_sites.site_type),
	data_source = EXCLUDED.data_source,
	last_updated = EXCLUDED.last_updated
RETURNING (xmax = 0) AS inserted`

// UpsertSites reconciles one file's site batch, keyed on (site_id, carrier).
func (e *Engine) UpsertSites(ctx context.Context, sites []CanonicalSite) (BatchResult, error) {
	var res BatchResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range sites {
			var inserted bool
			row := tx.Raw(upsertSiteSQL,
				s.SiteID, s.Carrier, s.SiteName, s.Latitude, s.Longitude,
				s.Location, s.LocationGrid, s.FrequencyBands, s.Technology,
				s.OperationalStatus, s.SiteType, s.DataSource, s.LastUpdated,
				s.SiteType,
			)
			if err := row.Scan(&inserted).Error; err != nil {
				return err
			}
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, Wrap(KindStoreUnavailable, "sites", "", err)
	}
	return res, nil
}

// WriteCoverage reconciles one file's coverage batch under the given mode.
func (e *Engine) WriteCoverage(ctx context.Context, areas []CoverageArea, mode WriteMode) (BatchResult, error) {
	var res BatchResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if mode.replace {
			if err := tx.
				Where("source_kind = ? AND coverage_type = ?", mode.sourceKind, mode.category).
				Delete(&CoverageArea{}).Error; err != nil {
				return err
			}
		}
		if len(areas) > 0 {
			if err := tx.CreateInBatches(areas, 500).Error; err != nil {
				return err
			}
		}
		if mode.replace {
			res.Replaced = len(areas)
		} else {
			res.Appended = len(areas)
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, Wrap(KindStoreUnavailable, mode.category, "", err)
	}
	return res, nil
}
