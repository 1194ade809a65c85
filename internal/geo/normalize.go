package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

// SRIDs for the two reference systems every geometry is stored in.
// The grid is GDA2020 / MGA zone 56, the standard survey grid for the
// serviced region. Coordinate-wise it is UTM zone 56 south on a GRS80
// ellipsoid, which is what the transform below computes.
const (
	SRIDWGS84 = 4326
	SRIDGrid  = 7856
)

// CRS identifies the reference system a source geometry was declared in.
type CRS int

const (
	CRSUnknown CRS = iota // no declaration carried by the source
	CRSWGS84
	CRSGrid
)

// ErrOutOfBounds marks a coordinate outside the plausible region.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// Bounds is the plausible geographic envelope for the serviced region.
// Coordinates outside it are rejected before anything is stored.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// AustraliaBounds is the default envelope: generous enough to cover all
// states and offshore territories, tight enough to catch swapped or
// mis-signed coordinates.
func AustraliaBounds() Bounds {
	return Bounds{MinLat: -50, MaxLat: -10, MinLon: 110, MaxLon: 160}
}

func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Position is a point expressed in both storage reference systems.
type Position struct {
	Lat      float64
	Lon      float64
	Easting  float64
	Northing float64
}

// LocationEWKT returns the WGS84 point in EWKT form for a geometry column.
func (p Position) LocationEWKT() string {
	return EWKT(orb.Point{p.Lon, p.Lat}, SRIDWGS84)
}

// GridEWKT returns the projected point in EWKT form for a geometry column.
func (p Position) GridEWKT() string {
	return EWKT(orb.Point{p.Easting, p.Northing}, SRIDGrid)
}

// GeomPair is a geometry expressed in both storage reference systems.
// AssumedCRS is set when the source carried no CRS declaration and the
// national grid was assumed; it is a data-quality flag, not an error.
type GeomPair struct {
	WGS84      orb.Geometry
	Grid       orb.Geometry
	AssumedCRS bool
}

// Normalizer converts source geometries into the two canonical reference
// systems and enforces the geographic bounds on point data.
type Normalizer struct {
	bounds Bounds
	grid   *transverseMercator
}

func NewNormalizer(b Bounds) *Normalizer {
	return &Normalizer{
		bounds: b,
		// GRS80, central meridian 153°E, UTM scale and southern-hemisphere
		// false origin: zone 56 of the national grid.
		grid: newTransverseMercator(6378137.0, 298.257222101, 153.0, 0.9996, 500000.0, 10000000.0),
	}
}

func (n *Normalizer) Bounds() Bounds { return n.bounds }

// NormalizePoint validates a geographic coordinate against the bounds and
// projects it onto the grid. The projection is a single closed-form
// transverse-Mercator evaluation, so the same input always yields the
// same output.
func (n *Normalizer) NormalizePoint(lat, lon float64) (Position, error) {
	if !n.bounds.Contains(lat, lon) {
		return Position{}, fmt.Errorf("%w: lat=%v lon=%v", ErrOutOfBounds, lat, lon)
	}
	east, north := n.grid.Forward(lon, lat)
	return Position{Lat: lat, Lon: lon, Easting: east, Northing: north}, nil
}

// NormalizeGeometry produces both storage representations of g. A source
// declared in WGS84 is projected onto the grid; a source declared in the
// grid (or carrying no declaration at all, in which case the grid is
// assumed) is inverse-projected to WGS84.
func (n *Normalizer) NormalizeGeometry(g orb.Geometry, src CRS) (GeomPair, error) {
	switch src {
	case CRSWGS84:
		return GeomPair{
			WGS84: g,
			Grid: mapPoints(g, func(p orb.Point) orb.Point {
				east, north := n.grid.Forward(p[0], p[1])
				return orb.Point{east, north}
			}),
		}, nil
	case CRSGrid, CRSUnknown:
		return GeomPair{
			WGS84: mapPoints(g, func(p orb.Point) orb.Point {
				lon, lat := n.grid.Inverse(p[0], p[1])
				return orb.Point{lon, lat}
			}),
			Grid:       g,
			AssumedCRS: src == CRSUnknown,
		}, nil
	default:
		return GeomPair{}, fmt.Errorf("unsupported source CRS %d", src)
	}
}

// AreaSqKm returns the planar area of the pair's projected geometry in
// square kilometers. Area is always measured on the grid; geographic
// degrees have no meaningful area.
func (g GeomPair) AreaSqKm() float64 {
	return math.Abs(planar.Area(g.Grid)) / 1_000_000
}

// EWKT renders a geometry as extended WKT with an explicit SRID, the text
// form PostGIS geometry columns accept directly.
func EWKT(g orb.Geometry, srid int) string {
	return fmt.Sprintf("SRID=%d;%s", srid, wkt.MarshalString(g))
}

// mapPoints applies fn to every vertex of g, preserving structure.
func mapPoints(g orb.Geometry, fn func(orb.Point) orb.Point) orb.Geometry {
	switch t := g.(type) {
	case orb.Point:
		return fn(t)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.LineString:
		out := make(orb.LineString, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.Ring:
		out := make(orb.Ring, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.Polygon:
		out := make(orb.Polygon, len(t))
		for i, r := range t {
			out[i] = mapPoints(r, fn).(orb.Ring)
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(t))
		for i, p := range t {
			out[i] = mapPoints(p, fn).(orb.Polygon)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(t))
		for i, c := range t {
			out[i] = mapPoints(c, fn)
		}
		return out
	default:
		return g
	}
}
