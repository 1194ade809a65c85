package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sgs-labs/geoingest/internal/geo"
)

// SiteRecord is the intermediate record a tabular-site adapter emits.
type SiteRecord struct {
	SiteID   string
	Carrier  string
	Position geo.Position
	Bands    []string
	CoFunded bool
	Program  string
}

// CoverageRecord is the intermediate record a polygon adapter emits.
type CoverageRecord struct {
	Name        string
	Description string
	Geom        geo.GeomPair
}

// CoverageMeta carries the per-dataset constants a coverage adapter cannot
// infer from file content: which program produced it, which carrier and
// technology it describes, and the category its rows belong to.
type CoverageMeta struct {
	SourceKind     string
	Carrier        string
	Technology     string
	CoverageType   string
	SignalStrength string
	DataSource     string
}

// DeriveTechnology maps a frequency-band set to its technology class.
// Precedence is fixed and checked most-capable first, so a site carrying
// both LTE and NR bands classifies as 5G. The result depends only on the
// set of bands, never on their order.
func DeriveTechnology(bands []string) TechnologyClass {
	contains := func(markers ...string) bool {
		for _, b := range bands {
			for _, m := range markers {
				if strings.Contains(b, m) {
					return true
				}
			}
		}
		return false
	}
	switch {
	case contains("NR"):
		return Tech5G
	case contains("LTE"):
		return Tech4G
	case contains("UMTS", "WCDMA"):
		return Tech3G
	case contains("GSM"):
		return Tech2G
	default:
		return TechUnknown
	}
}

// ConflateSite maps an intermediate site record into the canonical entity.
// Technology is recomputed here on every ingestion; source files that label
// their own technology are ignored.
func ConflateSite(rec SiteRecord, now time.Time) CanonicalSite {
	name := fmt.Sprintf("%s Site %s", rec.Carrier, rec.SiteID)
	var siteType *string
	if rec.CoFunded {
		t := SiteCoFunded
		siteType = &t
		if rec.Program != "" {
			name += fmt.Sprintf(" (%s)", rec.Program)
		}
	}
	return CanonicalSite{
		SiteID:            rec.SiteID,
		Carrier:           rec.Carrier,
		SiteName:          name,
		Latitude:          rec.Position.Lat,
		Longitude:         rec.Position.Lon,
		Location:          rec.Position.LocationEWKT(),
		LocationGrid:      rec.Position.GridEWKT(),
		FrequencyBands:    pq.StringArray(rec.Bands),
		Technology:        DeriveTechnology(rec.Bands),
		OperationalStatus: "Active",
		SiteType:          siteType,
		DataSource:        fmt.Sprintf("CSV_%s_%d", rec.Carrier, now.Year()),
		LastUpdated:       now,
	}
}

// ConflateCoverage maps an intermediate coverage record plus its dataset
// constants into the canonical entity. Area comes from the projected
// geometry; anything the source carried beyond the canonical attribute set
// has already been discarded by the adapter.
func ConflateCoverage(rec CoverageRecord, meta CoverageMeta, now time.Time) CoverageArea {
	return CoverageArea{
		ID:             uuid.New(),
		SourceKind:     meta.SourceKind,
		Carrier:        meta.Carrier,
		Name:           rec.Name,
		Description:    rec.Description,
		Technology:     meta.Technology,
		CoverageType:   meta.CoverageType,
		SignalStrength: meta.SignalStrength,
		Geometry:       geo.EWKT(rec.Geom.WGS84, geo.SRIDWGS84),
		AreaSqKm:       rec.Geom.AreaSqKm(),
		DataSource:     meta.DataSource,
		LastUpdated:    now,
	}
}
