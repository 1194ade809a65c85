package ingest

import (
	"encoding/xml"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/sgs-labs/geoingest/internal/geo"
)

// KMLAdapter reads named polygon placemarks from a coverage overlay.
// KML coordinates are WGS84 by definition, so no CRS sniffing happens
// here; the Normalizer only derives the projected twin for area math.
type KMLAdapter struct {
	Norm *geo.Normalizer
}

type kmlFile struct {
	XMLName  xml.Name     `xml:"kml"`
	Document kmlContainer `xml:"Document"`
}

// kmlContainer is either a Document or a Folder; overlays nest placemarks
// arbitrarily deep in folders.
type kmlContainer struct {
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string    `xml:"name"`
	Description   string    `xml:"description"`
	Polygon       *kmlPoly  `xml:"Polygon"`
	MultiGeometry *kmlMulti `xml:"MultiGeometry"`
}

type kmlMulti struct {
	Polygons []kmlPoly `xml:"Polygon"`
}

type kmlPoly struct {
	Outer kmlBoundary   `xml:"outerBoundaryIs"`
	Inner []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlBoundary struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

// Parse yields one record per polygon-bearing placemark. Placemarks with
// no polygon geometry (point pins, paths) are rejected record-level; any
// attribute beyond name and description is discarded.
func (a KMLAdapter) Parse(path string) iter.Seq2[CoverageRecord, error] {
	return func(yield func(CoverageRecord, error) bool) {
		raw, err := os.ReadFile(path)
		if err != nil {
			yield(CoverageRecord{}, Wrap(KindFileUnreadable, "kml", path, err))
			return
		}
		var doc kmlFile
		if err := xml.Unmarshal(raw, &doc); err != nil {
			yield(CoverageRecord{}, Wrap(KindFileUnreadable, "kml", path, err))
			return
		}

		var walk func(c kmlContainer) bool
		walk = func(c kmlContainer) bool {
			for _, pm := range c.Placemarks {
				g, err := placemarkGeometry(pm)
				if err != nil {
					if !yield(CoverageRecord{}, Wrap(KindMalformedRecord, "kml", pm.Name, err)) {
						return false
					}
					continue
				}
				pair, err := a.Norm.NormalizeGeometry(g, geo.CRSWGS84)
				if err != nil {
					if !yield(CoverageRecord{}, Wrap(KindInvalidGeometry, "kml", pm.Name, err)) {
						return false
					}
					continue
				}
				rec := CoverageRecord{
					Name:        strings.TrimSpace(pm.Name),
					Description: strings.TrimSpace(pm.Description),
					Geom:        pair,
				}
				if !yield(rec, nil) {
					return false
				}
			}
			for _, sub := range c.Folders {
				if !walk(sub) {
					return false
				}
			}
			return true
		}
		walk(doc.Document)
	}
}

func placemarkGeometry(pm kmlPlacemark) (orb.Geometry, error) {
	switch {
	case pm.Polygon != nil:
		return polyFromKML(*pm.Polygon)
	case pm.MultiGeometry != nil && len(pm.MultiGeometry.Polygons) > 0:
		multi := make(orb.MultiPolygon, 0, len(pm.MultiGeometry.Polygons))
		for _, kp := range pm.MultiGeometry.Polygons {
			p, err := polyFromKML(kp)
			if err != nil {
				return nil, err
			}
			multi = append(multi, p)
		}
		return multi, nil
	default:
		return nil, Errf(KindMalformedRecord, "kml", pm.Name, "placemark has no polygon geometry")
	}
}

func polyFromKML(kp kmlPoly) (orb.Polygon, error) {
	outer, err := parseCoordinates(kp.Outer.Coordinates)
	if err != nil {
		return nil, err
	}
	poly := orb.Polygon{outer}
	for _, inner := range kp.Inner {
		hole, err := parseCoordinates(inner.Coordinates)
		if err != nil {
			return nil, err
		}
		poly = append(poly, hole)
	}
	return poly, nil
}

// parseCoordinates decodes a KML coordinate list: whitespace-separated
// "lon,lat[,alt]" tuples. Altitude is dropped.
func parseCoordinates(s string) (orb.Ring, error) {
	fields := strings.Fields(s)
	if len(fields) < 4 {
		return nil, Errf(KindMalformedRecord, "kml", "", "ring has %d coordinates", len(fields))
	}
	ring := make(orb.Ring, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return nil, Errf(KindMalformedRecord, "kml", "", "bad coordinate tuple %q", f)
		}
		lon, lonErr := strconv.ParseFloat(parts[0], 64)
		lat, latErr := strconv.ParseFloat(parts[1], 64)
		if lonErr != nil || latErr != nil {
			return nil, Errf(KindMalformedRecord, "kml", "", "bad coordinate tuple %q", f)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring, nil
}
