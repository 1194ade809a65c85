package ingest

import (
	"iter"
	"os"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/sgs-labs/geoingest/internal/geo"
)

// ShapefileAdapter reads one full polygon dataset. The coverage category is
// supplied by the caller, not inferred from the file; the records it emits
// form a replace-set for that (source_kind, category) pair.
type ShapefileAdapter struct {
	Category string
	Norm     *geo.Normalizer
}

// Parse yields every feature of the dataset. Features whose shape is not a
// polygon are rejected record-level; an unreadable file aborts with a
// single KindFileUnreadable element.
func (a ShapefileAdapter) Parse(path string) iter.Seq2[CoverageRecord, error] {
	return func(yield func(CoverageRecord, error) bool) {
		r, err := shp.Open(path)
		if err != nil {
			yield(CoverageRecord{}, Wrap(KindFileUnreadable, a.Category, path, err))
			return
		}
		defer r.Close()

		src := sniffPRJ(path)
		fields := r.Fields()
		nameField := -1
		for i, f := range fields {
			n := strings.ToLower(f.String())
			if n == "name" || n == "locality" || n == "label" {
				nameField = i
				break
			}
		}

		for r.Next() {
			i, shape := r.Shape()
			poly, ok := shape.(*shp.Polygon)
			if !ok {
				if !yield(CoverageRecord{}, Errf(KindMalformedRecord, a.Category, path,
					"feature %d: not a polygon (%T)", i, shape)) {
					return
				}
				continue
			}

			g := polygonToOrb(poly)
			pair, err := a.Norm.NormalizeGeometry(g, src)
			if err != nil {
				if !yield(CoverageRecord{}, Wrap(KindInvalidGeometry, a.Category, path, err)) {
					return
				}
				continue
			}

			rec := CoverageRecord{Geom: pair}
			if nameField >= 0 {
				rec.Name = strings.TrimRight(r.ReadAttribute(i, nameField), "\x00 ")
			}
			if !yield(rec, nil) {
				return
			}
		}
		// Next returns false on a read error as well as at the end of the
		// dataset. A truncated .shp must fail the file whole, not commit a
		// partial replace-set.
		if err := r.Err(); err != nil {
			yield(CoverageRecord{}, Wrap(KindFileUnreadable, a.Category, path, err))
		}
	}
}

// sniffPRJ inspects the .prj sidecar for the declared CRS. A projected
// definition is taken as the national grid, a geographic one as WGS84, and
// a missing sidecar as unknown — the Normalizer then assumes the grid and
// flags the assumption.
func sniffPRJ(shpPath string) geo.CRS {
	prj := strings.TrimSuffix(shpPath, ".shp") + ".prj"
	raw, err := os.ReadFile(prj)
	if err != nil {
		return geo.CRSUnknown
	}
	wkt := strings.ToUpper(string(raw))
	switch {
	case strings.Contains(wkt, "PROJCS"):
		return geo.CRSGrid
	case strings.Contains(wkt, "GEOGCS") || strings.Contains(wkt, "GEOGCRS"):
		return geo.CRSWGS84
	default:
		return geo.CRSUnknown
	}
}

// polygonToOrb rebuilds a shapefile polygon's ring list into orb geometry.
// Shapefile outer rings wind clockwise and holes counter-clockwise; each
// clockwise ring starts a new polygon and subsequent counter-clockwise
// rings are its holes.
func polygonToOrb(p *shp.Polygon) orb.Geometry {
	rings := splitRings(p)
	var multi orb.MultiPolygon
	for _, ring := range rings {
		if ring.Orientation() == orb.CW || len(multi) == 0 {
			multi = append(multi, orb.Polygon{ring})
			continue
		}
		multi[len(multi)-1] = append(multi[len(multi)-1], ring)
	}
	if len(multi) == 1 {
		return multi[0]
	}
	return multi
}

func splitRings(p *shp.Polygon) []orb.Ring {
	out := make([]orb.Ring, 0, len(p.Parts))
	for part, start := range p.Parts {
		end := len(p.Points)
		if part+1 < len(p.Parts) {
			end = int(p.Parts[part+1])
		}
		ring := make(orb.Ring, 0, end-int(start))
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) >= 4 {
			out = append(out, ring)
		}
	}
	return out
}
