package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TechnologyClass is the canonical radio generation, always derived from the
// frequency-band set and never copied from a source file's own labeling.
type TechnologyClass string

const (
	Tech2G      TechnologyClass = "2G"
	Tech3G      TechnologyClass = "3G"
	Tech4G      TechnologyClass = "4G/LTE"
	Tech5G      TechnologyClass = "5G"
	TechUnknown TechnologyClass = "Unknown"
)

// Site-type classifications. SiteType is a pointer on CanonicalSite so that
// a source which says nothing about co-funding is distinguishable from one
// that explicitly classifies the site.
const (
	SiteStandard = "Standard"
	SiteCoFunded = "Co-funded"
)

// Source kinds tag coverage rows with the program that produced them; the
// replace scope of a coverage batch is (source_kind, coverage_type).
const (
	SourceNBN     = "NBN"
	SourceOverlay = "CarrierOverlay"
)

// CanonicalSite is a point infrastructure asset, uniquely keyed by
// (site_id, carrier). Geometry columns hold EWKT; PostGIS parses it on
// insert.
type CanonicalSite struct {
	SiteID            string          `gorm:"primaryKey;column:site_id"`
	Carrier           string          `gorm:"primaryKey"`
	SiteName          string          `gorm:"column:site_name"`
	Latitude          float64         `gorm:"column:latitude"`
	Longitude         float64         `gorm:"column:longitude"`
	Location          string          `gorm:"column:location;type:geometry(Point,4326)"`
	LocationGrid      string          `gorm:"column:location_grid;type:geometry(Point,7856)"`
	FrequencyBands    pq.StringArray  `gorm:"column:frequency_bands;type:text[]"`
	Technology        TechnologyClass `gorm:"column:technology"`
	OperationalStatus string          `gorm:"column:operational_status"`
	SiteType          *string         `gorm:"column:site_type"`
	DataSource        string          `gorm:"column:data_source"`
	LastUpdated       time.Time       `gorm:"column:last_updated"`
}

func (CanonicalSite) TableName() string { return "canonical_sites" }

// CoverageArea is a polygon describing network coverage. Rows have no
// natural key across ingestion runs, so each gets a fresh uuid.
type CoverageArea struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	SourceKind     string    `gorm:"column:source_kind"`
	Carrier        string    `gorm:"column:carrier"`
	Name           string    `gorm:"column:name"`
	Description    string    `gorm:"column:description"`
	Technology     string    `gorm:"column:technology"`
	CoverageType   string    `gorm:"column:coverage_type"`
	SignalStrength string    `gorm:"column:signal_strength"`
	Geometry       string    `gorm:"column:geometry;type:geometry(Geometry,4326)"`
	AreaSqKm       float64   `gorm:"column:area_sqkm"`
	DataSource     string    `gorm:"column:data_source"`
	LastUpdated    time.Time `gorm:"column:last_updated"`
}

func (CoverageArea) TableName() string { return "coverage_areas" }
