package geo_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/sgs-labs/geoingest/internal/geo"
)

// roundTrip projects a geographic point onto the grid and back, returning
// the recovered geographic point.
func roundTrip(t *testing.T, n *geo.Normalizer, lat, lon float64) (float64, float64) {
	t.Helper()

	pos, err := n.NormalizePoint(lat, lon)
	if err != nil {
		t.Fatalf("NormalizePoint(%v, %v): %v", lat, lon, err)
	}
	pair, err := n.NormalizeGeometry(orb.Point{pos.Easting, pos.Northing}, geo.CRSGrid)
	if err != nil {
		t.Fatalf("NormalizeGeometry: %v", err)
	}
	p, ok := pair.WGS84.(orb.Point)
	if !ok {
		t.Fatalf("expected point, got %T", pair.WGS84)
	}
	return p[1], p[0]
}

// driftMeters approximates the ground distance between a coordinate and its
// round-tripped recovery.
func driftMeters(lat0, lon0, lat1, lon1 float64) float64 {
	const metersPerDeg = 111320
	dy := (lat1 - lat0) * metersPerDeg
	dx := (lon1 - lon0) * metersPerDeg * math.Cos(lat0*math.Pi/180)
	return math.Hypot(dx, dy)
}

// TestNormalizePoint_RoundTrip verifies the projected-then-inverse round
// trip recovers the input coordinate to within a centimeter everywhere in
// the envelope, corners included.
func TestNormalizePoint_RoundTrip(t *testing.T) {
	n := geo.NewNormalizer(geo.AustraliaBounds())

	points := [][2]float64{
		{-33.8688, 151.2093}, // Sydney
		{-27.4698, 153.0251}, // Brisbane
		{-35.2809, 149.1300}, // Canberra, west of the zone's natural span
		{-42.8821, 147.3272}, // Hobart
		{-37.8136, 144.9631}, // Melbourne, eight degrees off the central meridian
		{-10, 110},           // envelope corners
		{-10, 160},
		{-50, 110},
		{-50, 160},
	}
	const tolMeters = 0.01
	for _, p := range points {
		lat, lon := roundTrip(t, n, p[0], p[1])
		if d := driftMeters(p[0], p[1], lat, lon); d > tolMeters {
			t.Errorf("round trip of (%v, %v) drifted %vm to (%v, %v)", p[0], p[1], d, lat, lon)
		}
	}
}

// TestNormalizePoint_KnownGridValues pins the projection to survey anchors:
// the central meridian maps to the false easting exactly, and the northing
// there matches a numerical integration of the GRS80 meridian arc.
func TestNormalizePoint_KnownGridValues(t *testing.T) {
	n := geo.NewNormalizer(geo.AustraliaBounds())

	pos, err := n.NormalizePoint(-33.0, 153.0)
	if err != nil {
		t.Fatalf("NormalizePoint: %v", err)
	}
	if math.Abs(pos.Easting-500000.0) > 0.001 {
		t.Errorf("easting on the central meridian = %v, want 500000", pos.Easting)
	}
	if math.Abs(pos.Northing-6348713.056) > 0.001 {
		t.Errorf("northing = %v, want 6348713.056", pos.Northing)
	}

	// East of the central meridian means east of the false easting.
	east, err := n.NormalizePoint(-33.0, 154.0)
	if err != nil {
		t.Fatalf("NormalizePoint: %v", err)
	}
	if east.Easting <= 500000 {
		t.Errorf("easting at 154E = %v, want > 500000", east.Easting)
	}
}

func TestNormalizePoint_RejectsOutOfBounds(t *testing.T) {
	n := geo.NewNormalizer(geo.AustraliaBounds())

	bad := [][2]float64{
		{40.0, 151.2},   // northern hemisphere latitude
		{-33.8, 109.0},  // west of the envelope
		{-33.8, -151.2}, // sign flip on longitude
		{-55.0, 151.2},  // south of the envelope
	}
	for _, p := range bad {
		_, err := n.NormalizePoint(p[0], p[1])
		if !errors.Is(err, geo.ErrOutOfBounds) {
			t.Errorf("NormalizePoint(%v, %v): expected ErrOutOfBounds, got %v", p[0], p[1], err)
		}
	}
}

func TestNormalizePoint_AcceptsCustomBounds(t *testing.T) {
	// A deployment restricted to one state can tighten the envelope.
	n := geo.NewNormalizer(geo.Bounds{MinLat: -38, MaxLat: -28, MinLon: 140, MaxLon: 154})

	if _, err := n.NormalizePoint(-33.8, 151.2); err != nil {
		t.Errorf("in-bounds point rejected: %v", err)
	}
	if _, err := n.NormalizePoint(-42.9, 147.3); !errors.Is(err, geo.ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds for point outside custom envelope, got %v", err)
	}
}

// TestAreaSqKm_GridSquare checks the area of a exactly-known projected
// square: 1000m on each side is one square kilometer, regardless of where
// on the grid it sits.
func TestAreaSqKm_GridSquare(t *testing.T) {
	n := geo.NewNormalizer(geo.AustraliaBounds())

	square := orb.Polygon{{
		{334000, 6250000},
		{335000, 6250000},
		{335000, 6251000},
		{334000, 6251000},
		{334000, 6250000},
	}}
	pair, err := n.NormalizeGeometry(square, geo.CRSGrid)
	if err != nil {
		t.Fatalf("NormalizeGeometry: %v", err)
	}
	if got := pair.AreaSqKm(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0 sqkm, got %v", got)
	}
}

func TestNormalizeGeometry_UnknownCRSAssumesGrid(t *testing.T) {
	n := geo.NewNormalizer(geo.AustraliaBounds())

	square := orb.Polygon{{
		{334000, 6250000},
		{335000, 6250000},
		{335000, 6251000},
		{334000, 6251000},
		{334000, 6250000},
	}}
	pair, err := n.NormalizeGeometry(square, geo.CRSUnknown)
	if err != nil {
		t.Fatalf("NormalizeGeometry: %v", err)
	}
	if !pair.AssumedCRS {
		t.Error("expected AssumedCRS flag for undeclared source CRS")
	}

	// The assumed-grid square sits near Sydney once inverse-projected.
	poly, ok := pair.WGS84.(orb.Polygon)
	if !ok {
		t.Fatalf("expected polygon, got %T", pair.WGS84)
	}
	p := poly[0][0]
	if p[1] > -33 || p[1] < -35 || p[0] < 150 || p[0] > 152 {
		t.Errorf("inverse projection landed at (%v, %v), expected near Sydney", p[1], p[0])
	}

	declared, err := n.NormalizeGeometry(square, geo.CRSGrid)
	if err != nil {
		t.Fatalf("NormalizeGeometry: %v", err)
	}
	if declared.AssumedCRS {
		t.Error("AssumedCRS must not be set when the source declared the grid")
	}
}

func TestEWKT(t *testing.T) {
	got := geo.EWKT(orb.Point{151.2, -33.8}, geo.SRIDWGS84)
	if !strings.HasPrefix(got, "SRID=4326;POINT") {
		t.Errorf("unexpected EWKT: %q", got)
	}
	if !strings.Contains(got, "151.2") || !strings.Contains(got, "-33.8") {
		t.Errorf("EWKT lost coordinates: %q", got)
	}
}
