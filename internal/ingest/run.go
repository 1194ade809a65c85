package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sgs-labs/geoingest/internal/geo"
)

// Store is the engine surface the orchestrator drives. It exists so the
// pipeline can be exercised without a database.
type Store interface {
	UpsertSites(ctx context.Context, sites []CanonicalSite) (BatchResult, error)
	WriteCoverage(ctx context.Context, areas []CoverageArea, mode WriteMode) (BatchResult, error)
}

// FileResult is the outcome of one file's ingestion.
type FileResult struct {
	Path     string
	Source   string
	Inserted int
	Updated  int
	Appended int
	Replaced int
	Rejected int
}

// RunSummary aggregates a whole run. Failed files appear with their error;
// their records are not counted anywhere else.
type RunSummary struct {
	Files  []FileResult
	Failed []FailedFile
}

type FailedFile struct {
	Path string
	Err  error
}

// Report renders the summary as the textual run report.
func (s RunSummary) Report() string {
	var b strings.Builder
	b.WriteString("=== Ingestion Summary ===\n")
	var ins, upd, app, rep, rej int
	for _, f := range s.Files {
		fmt.Fprintf(&b, "%-14s %s: inserted=%d updated=%d appended=%d replaced=%d rejected=%d\n",
			f.Source, filepath.Base(f.Path), f.Inserted, f.Updated, f.Appended, f.Replaced, f.Rejected)
		ins += f.Inserted
		upd += f.Updated
		app += f.Appended
		rep += f.Replaced
		rej += f.Rejected
	}
	for _, f := range s.Failed {
		fmt.Fprintf(&b, "FAILED         %s: %v\n", filepath.Base(f.Path), f.Err)
	}
	fmt.Fprintf(&b, "totals: inserted=%d updated=%d appended=%d replaced=%d rejected=%d failed_files=%d\n",
		ins, upd, app, rep, rej, len(s.Failed))
	return b.String()
}

// Pipeline sequences adapters over source files and reconciles their output
// into the store. Files are independent units of work; one file's failure
// never blocks the rest.
type Pipeline struct {
	Store    Store
	Norm     *geo.Normalizer
	Dialects DialectRegistry
	Obs      Observer

	// Now is the ingestion clock; provenance tags carry its year.
	// Overridable for tests, defaults to time.Now.
	Now func() time.Time

	// CSVLatin1 is passed through to the tabular adapter.
	CSVLatin1 bool
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) obs() Observer {
	if p.Obs != nil {
		return p.Obs
	}
	return NopObserver{}
}

// IngestSiteFile runs one carrier CSV end to end: parse, conflate, upsert.
func (p *Pipeline) IngestSiteFile(ctx context.Context, path, carrier string) (FileResult, error) {
	obs := p.obs()
	obs.FileStarted(path, carrier)
	res := FileResult{Path: path, Source: carrier}

	if _, ok := p.Dialects.For(carrier); !ok {
		// Accepted but worth surfacing: every row will classify Unknown.
		obs.DataQuality(carrier, "no band dialect registered; technology will be Unknown")
	}

	adapter := SiteAdapter{Carrier: carrier, Dialects: p.Dialects, Norm: p.Norm, Latin1: p.CSVLatin1}
	now := p.now()
	var sites []CanonicalSite
	for rec, err := range adapter.Parse(path) {
		if err != nil {
			if KindOf(err) == KindFileUnreadable {
				obs.FileFailed(path, err)
				return res, err
			}
			res.Rejected++
			obs.RecordRejected(carrier, errorKey(err), err)
			continue
		}
		sites = append(sites, ConflateSite(rec, now))
	}

	batch, err := p.Store.UpsertSites(ctx, sites)
	if err != nil {
		obs.FileFailed(path, err)
		return res, err
	}
	res.Inserted = batch.Inserted
	res.Updated = batch.Updated
	obs.FileCompleted(path, res)
	return res, nil
}

// IngestCoverageShapefile runs one snapshot polygon dataset; its rows
// replace the stored set for (SourceNBN, category).
func (p *Pipeline) IngestCoverageShapefile(ctx context.Context, path, category string) (FileResult, error) {
	obs := p.obs()
	obs.FileStarted(path, category)
	res := FileResult{Path: path, Source: category}

	now := p.now()
	meta := CoverageMeta{
		SourceKind:   SourceNBN,
		Carrier:      SourceNBN,
		CoverageType: category,
		DataSource:   fmt.Sprintf("NBN_Shapefile_%d", now.Year()),
	}

	adapter := ShapefileAdapter{Category: category, Norm: p.Norm}
	var areas []CoverageArea
	assumed := false
	for rec, err := range adapter.Parse(path) {
		if err != nil {
			if KindOf(err) == KindFileUnreadable {
				obs.FileFailed(path, err)
				return res, err
			}
			res.Rejected++
			obs.RecordRejected(category, errorKey(err), err)
			continue
		}
		if rec.Geom.AssumedCRS && !assumed {
			assumed = true
			obs.DataQuality(category, "no CRS declaration; assuming the national grid")
		}
		areas = append(areas, ConflateCoverage(rec, meta, now))
	}

	batch, err := p.Store.WriteCoverage(ctx, areas, ReplaceScope(SourceNBN, category))
	if err != nil {
		obs.FileFailed(path, err)
		return res, err
	}
	res.Replaced = batch.Replaced
	obs.FileCompleted(path, res)
	return res, nil
}

// IngestOverlayKML runs one carrier coverage overlay; its rows are appended.
// The meta constants come from the caller — nothing is inferred from the
// file's own labeling.
func (p *Pipeline) IngestOverlayKML(ctx context.Context, path string, meta CoverageMeta) (FileResult, error) {
	obs := p.obs()
	obs.FileStarted(path, meta.Carrier)
	res := FileResult{Path: path, Source: meta.Carrier}

	adapter := KMLAdapter{Norm: p.Norm}
	now := p.now()
	var areas []CoverageArea
	for rec, err := range adapter.Parse(path) {
		if err != nil {
			if KindOf(err) == KindFileUnreadable {
				obs.FileFailed(path, err)
				return res, err
			}
			res.Rejected++
			obs.RecordRejected(meta.Carrier, errorKey(err), err)
			continue
		}
		areas = append(areas, ConflateCoverage(rec, meta, now))
	}

	batch, err := p.Store.WriteCoverage(ctx, areas, Append())
	if err != nil {
		obs.FileFailed(path, err)
		return res, err
	}
	res.Appended = batch.Appended
	obs.FileCompleted(path, res)
	return res, nil
}

var (
	siteFileRe = regexp.MustCompile(`^mobile-sites-([a-zA-Z]+)-\d{4}.*\.csv$`)
	nbnFileRe  = regexp.MustCompile(`^nbn_coverage_([a-zA-Z_]+)\.shp$`)
)

// nbnCategories maps filename tokens to display categories.
var nbnCategories = map[string]string{
	"fixedline": "Fixed Line",
	"wireless":  "Wireless",
}

// carrierNames maps filename tokens to the carriers' preferred casing;
// a title-cased fallback covers carriers not listed here.
var carrierNames = map[string]string{
	"optus":   "Optus",
	"telstra": "Telstra",
	"tpg":     "TPG",
}

// Run discovers source files under dataDir and ingests each one. File
// order carries no meaning: sites and coverage areas have no
// cross-referential invariant at ingestion time.
func (p *Pipeline) Run(ctx context.Context, dataDir string) (RunSummary, error) {
	var sum RunSummary
	title := cases.Title(language.English)

	entries, err := filepath.Glob(filepath.Join(dataDir, "*"))
	if err != nil {
		return sum, err
	}

	record := func(res FileResult, err error) {
		if err != nil {
			sum.Failed = append(sum.Failed, FailedFile{Path: res.Path, Err: err})
			return
		}
		sum.Files = append(sum.Files, res)
	}

	for _, path := range entries {
		base := filepath.Base(path)
		switch {
		case siteFileRe.MatchString(base):
			token := strings.ToLower(siteFileRe.FindStringSubmatch(base)[1])
			carrier, ok := carrierNames[token]
			if !ok {
				carrier = title.String(token)
			}
			record(p.IngestSiteFile(ctx, path, carrier))
		case nbnFileRe.MatchString(base):
			token := nbnFileRe.FindStringSubmatch(base)[1]
			category, ok := nbnCategories[token]
			if !ok {
				category = title.String(strings.ReplaceAll(token, "_", " "))
			}
			record(p.IngestCoverageShapefile(ctx, path, category))
		case strings.HasSuffix(base, ".kml"):
			meta := overlayMetaFromName(base, p.now())
			record(p.IngestOverlayKML(ctx, path, meta))
		}
	}
	return sum, nil
}

// overlayMetaFromName derives the per-dataset constants for a discovered
// overlay. Only the carrier is read from the filename; the rest matches
// the external-antenna overlays these drops contain.
func overlayMetaFromName(base string, now time.Time) CoverageMeta {
	carrier := "Unknown"
	lower := strings.ToLower(base)
	for _, c := range []string{"Optus", "Telstra", "TPG"} {
		if strings.Contains(lower, strings.ToLower(c)) {
			carrier = c
			break
		}
	}
	return CoverageMeta{
		SourceKind:     SourceOverlay,
		Carrier:        carrier,
		Technology:     "4G",
		CoverageType:   "4G External Antenna",
		SignalStrength: "Good",
		DataSource:     fmt.Sprintf("%s_KML_%d", carrier, now.Year()),
	}
}

func errorKey(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Key
	}
	return ""
}
