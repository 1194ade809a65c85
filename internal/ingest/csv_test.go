package ingest_test

import (
	"testing"

	"github.com/sgs-labs/geoingest/internal/geo"
	"github.com/sgs-labs/geoingest/internal/ingest"
)

const sitesCSV = "RFNSA ID,Latitude,Longitude,LTE700,NR3500,Co_funded,Co_contribution_program\n" +
	"9000001,-33.8,151.2,Y,Y,,\n" + // accepted, 5G band set
	"9000002,40.0,151.2,Y,,,\n" + // latitude outside bounds
	"9000003,-27.5,not-a-number,,Y,,\n" + // unparseable longitude
	"9000004,-35.3,149.1,y,n,Y,MBSP\n" // lowercase y still counts; co-funded

func parseAll(t *testing.T, a ingest.SiteAdapter, path string) ([]ingest.SiteRecord, []error) {
	t.Helper()
	var recs []ingest.SiteRecord
	var errs []error
	for rec, err := range a.Parse(path) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, errs
}

func siteAdapter(carrier string) ingest.SiteAdapter {
	return ingest.SiteAdapter{
		Carrier:  carrier,
		Dialects: ingest.DefaultDialects(),
		Norm:     geo.NewNormalizer(geo.AustraliaBounds()),
	}
}

func TestSiteAdapter_Parse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mobile-sites-optus-2024.csv", sitesCSV)

	recs, errs := parseAll(t, siteAdapter("Optus"), path)

	if len(recs) != 2 {
		t.Fatalf("expected 2 accepted records, got %d", len(recs))
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 rejections, got %d: %v", len(errs), errs)
	}
	for _, err := range errs {
		if ingest.KindOf(err) != ingest.KindInvalidGeometry {
			t.Errorf("expected invalid_geometry rejection, got %v", err)
		}
	}

	first := recs[0]
	if first.SiteID != "9000001" {
		t.Errorf("site id = %q", first.SiteID)
	}
	if len(first.Bands) != 2 || first.Bands[0] != "LTE700" || first.Bands[1] != "NR3500" {
		t.Errorf("bands = %v, want [LTE700 NR3500] in dialect order", first.Bands)
	}
	if first.Position.Lat != -33.8 || first.Position.Lon != 151.2 {
		t.Errorf("position = %+v", first.Position)
	}
	if first.Position.Easting == 0 || first.Position.Northing == 0 {
		t.Error("projected coordinates missing")
	}

	cofunded := recs[1]
	if !cofunded.CoFunded || cofunded.Program != "MBSP" {
		t.Errorf("co-funding not picked up: %+v", cofunded)
	}
	if len(cofunded.Bands) != 1 || cofunded.Bands[0] != "LTE700" {
		t.Errorf("bands = %v, want [LTE700]", cofunded.Bands)
	}
}

func TestSiteAdapter_RejectedRecordsNeverSurface(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sites.csv", sitesCSV)

	recs, _ := parseAll(t, siteAdapter("Optus"), path)
	for _, r := range recs {
		if r.SiteID == "9000002" || r.SiteID == "9000003" {
			t.Errorf("rejected record %s leaked through", r.SiteID)
		}
	}
}

func TestSiteAdapter_UnknownCarrier(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sites.csv", sitesCSV)

	recs, _ := parseAll(t, siteAdapter("Vodafone"), path)

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	// No dialect: empty band set, which conflates to technology Unknown.
	if len(recs[0].Bands) != 0 {
		t.Errorf("bands = %v, want empty for unregistered carrier", recs[0].Bands)
	}
}

func TestSiteAdapter_BOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sites.csv",
		"\ufeffRFNSA ID,Latitude,Longitude\n9000001,-33.8,151.2\n")

	recs, errs := parseAll(t, siteAdapter("Optus"), path)
	if len(errs) != 0 {
		t.Fatalf("unexpected rejections: %v", errs)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
}

func TestSiteAdapter_BOMOverridesLatin1(t *testing.T) {
	// A UTF-8 BOM on a file flagged Latin1 means the flag is wrong; the
	// BOM must be stripped before any transcoding decision, or the first
	// header cell never matches.
	dir := t.TempDir()
	path := writeFile(t, dir, "sites.csv",
		"\ufeffRFNSA ID,Latitude,Longitude\n9000001,-33.8,151.2\n")

	a := siteAdapter("Optus")
	a.Latin1 = true
	recs, errs := parseAll(t, a, path)
	if len(errs) != 0 {
		t.Fatalf("unexpected rejections: %v", errs)
	}
	if len(recs) != 1 || recs[0].SiteID != "9000001" {
		t.Fatalf("expected the one record, got %v", recs)
	}
}

func TestSiteAdapter_MissingColumnIsFileLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sites.csv", "RFNSA ID,Latitude\n9000001,-33.8\n")

	recs, errs := parseAll(t, siteAdapter("Optus"), path)
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
	if len(errs) != 1 || ingest.KindOf(errs[0]) != ingest.KindFileUnreadable {
		t.Fatalf("expected a single file_unreadable error, got %v", errs)
	}
}

func TestSiteAdapter_MissingFile(t *testing.T) {
	_, errs := parseAll(t, siteAdapter("Optus"), "/nonexistent/sites.csv")
	if len(errs) != 1 || ingest.KindOf(errs[0]) != ingest.KindFileUnreadable {
		t.Fatalf("expected file_unreadable, got %v", errs)
	}
}
