package ingest_test

import (
	"testing"
	"time"

	"github.com/sgs-labs/geoingest/internal/geo"
	"github.com/sgs-labs/geoingest/internal/ingest"
)

func TestDeriveTechnology_Precedence(t *testing.T) {
	cases := []struct {
		bands []string
		want  ingest.TechnologyClass
	}{
		{[]string{"NR3500"}, ingest.Tech5G},
		{[]string{"LTE700", "NR3500"}, ingest.Tech5G}, // 5G wins over LTE
		{[]string{"NR3500", "LTE700"}, ingest.Tech5G}, // order-independent
		{[]string{"LTE700", "LTE1800"}, ingest.Tech4G},
		{[]string{"UMTS900"}, ingest.Tech3G},
		{[]string{"WCDMA850", "GSM900"}, ingest.Tech3G}, // 3G wins over 2G
		{[]string{"GSM900"}, ingest.Tech2G},
		{[]string{"NBIoT700"}, ingest.TechUnknown},
		{nil, ingest.TechUnknown},
	}
	for _, c := range cases {
		if got := ingest.DeriveTechnology(c.bands); got != c.want {
			t.Errorf("DeriveTechnology(%v) = %v, want %v", c.bands, got, c.want)
		}
	}
}

func testPosition(t *testing.T) geo.Position {
	t.Helper()
	n := geo.NewNormalizer(geo.AustraliaBounds())
	pos, err := n.NormalizePoint(-33.8, 151.2)
	if err != nil {
		t.Fatalf("NormalizePoint: %v", err)
	}
	return pos
}

func TestConflateSite(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := ingest.SiteRecord{
		SiteID:   "9001234",
		Carrier:  "Optus",
		Position: testPosition(t),
		Bands:    []string{"LTE700", "NR3500"},
	}

	site := ingest.ConflateSite(rec, now)

	if site.SiteName != "Optus Site 9001234" {
		t.Errorf("site name = %q", site.SiteName)
	}
	if site.Technology != ingest.Tech5G {
		t.Errorf("technology = %v, want 5G", site.Technology)
	}
	if site.SiteType != nil {
		t.Errorf("site type should be unspecified, got %q", *site.SiteType)
	}
	if site.DataSource != "CSV_Optus_2024" {
		t.Errorf("data source = %q", site.DataSource)
	}
	if site.OperationalStatus != "Active" {
		t.Errorf("operational status = %q", site.OperationalStatus)
	}
	if site.Location != "SRID=4326;POINT(151.2 -33.8)" {
		t.Errorf("location = %q", site.Location)
	}
}

func TestConflateSite_CoFunded(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := ingest.SiteRecord{
		SiteID:   "9001234",
		Carrier:  "Telstra",
		Position: testPosition(t),
		CoFunded: true,
		Program:  "MBSP R5A",
	}

	site := ingest.ConflateSite(rec, now)

	if site.SiteName != "Telstra Site 9001234 (MBSP R5A)" {
		t.Errorf("site name = %q", site.SiteName)
	}
	if site.SiteType == nil || *site.SiteType != ingest.SiteCoFunded {
		t.Errorf("site type = %v, want Co-funded", site.SiteType)
	}
	// No bands in the record: the conflator never trusts source labeling.
	if site.Technology != ingest.TechUnknown {
		t.Errorf("technology = %v, want Unknown", site.Technology)
	}
}

func TestConflateCoverage(t *testing.T) {
	n := geo.NewNormalizer(geo.AustraliaBounds())
	square, err := n.NormalizeGeometry(gridSquare(), geo.CRSGrid)
	if err != nil {
		t.Fatalf("NormalizeGeometry: %v", err)
	}

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	meta := ingest.CoverageMeta{
		SourceKind:     ingest.SourceOverlay,
		Carrier:        "Optus",
		Technology:     "4G",
		CoverageType:   "4G External Antenna",
		SignalStrength: "Good",
		DataSource:     "Optus_KML_2024",
	}
	area := ingest.ConflateCoverage(ingest.CoverageRecord{Name: "Cell 12", Geom: square}, meta, now)

	if area.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("coverage row did not get an id")
	}
	if area.CoverageType != "4G External Antenna" || area.Carrier != "Optus" {
		t.Errorf("meta not carried: %+v", area)
	}
	if area.AreaSqKm < 0.999 || area.AreaSqKm > 1.001 {
		t.Errorf("area = %v, want ~1.0 (computed on the grid, not in degrees)", area.AreaSqKm)
	}
	if area.Name != "Cell 12" {
		t.Errorf("name = %q", area.Name)
	}
}
