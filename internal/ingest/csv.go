package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/sgs-labs/geoingest/internal/geo"
)

// SiteAdapter parses one carrier's tabular site export. A malformed row is
// yielded as a record-level error and parsing continues; only a broken
// file or header aborts the sequence, with a single KindFileUnreadable
// element.
type SiteAdapter struct {
	Carrier  string
	Dialects DialectRegistry
	Norm     *geo.Normalizer
	// Latin1 transcodes Windows-1252 exports; some carrier drops are not
	// UTF-8 and carry degree signs in free-text columns.
	Latin1 bool
}

const utf8BOM = "\ufeff"

// Columns shared by all carrier dialects.
const (
	colSiteID    = "RFNSA ID"
	colLatitude  = "Latitude"
	colLongitude = "Longitude"
	colCoFunded  = "Co_funded"
	colProgram   = "Co_contribution_program"
)

// Parse lazily yields (record, nil) for accepted rows and (zero, err) for
// rejected ones.
func (a SiteAdapter) Parse(path string) iter.Seq2[SiteRecord, error] {
	return func(yield func(SiteRecord, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(SiteRecord{}, Wrap(KindFileUnreadable, a.Carrier, path, err))
			return
		}
		defer f.Close()

		// Sniff the BOM on the raw bytes. A UTF-8 BOM wins over the Latin1
		// flag: a file that starts with one is UTF-8 whatever the carrier
		// claims, and transcoding it would mangle the first header cell.
		br := bufio.NewReader(f)
		var rd io.Reader = br
		if lead, _ := br.Peek(len(utf8BOM)); string(lead) == utf8BOM {
			br.Discard(len(utf8BOM))
		} else if a.Latin1 {
			rd = transform.NewReader(br, charmap.Windows1252.NewDecoder())
		}
		r := csv.NewReader(rd)
		r.FieldsPerRecord = -1

		header, err := r.Read()
		if err != nil {
			yield(SiteRecord{}, Wrap(KindFileUnreadable, a.Carrier, path, err))
			return
		}
		col := map[string]int{}
		for i, h := range header {
			col[strings.TrimSpace(h)] = i
		}
		for _, required := range []string{colSiteID, colLatitude, colLongitude} {
			if _, ok := col[required]; !ok {
				yield(SiteRecord{}, Errf(KindFileUnreadable, a.Carrier, path, "missing required column %q", required))
				return
			}
		}

		dialect, _ := a.Dialects.For(a.Carrier)

		for {
			rec, err := r.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				// csv.Reader recovers at the next line; treat as one bad row.
				if !yield(SiteRecord{}, Wrap(KindMalformedRecord, a.Carrier, "", err)) {
					return
				}
				continue
			}

			get := func(name string) string {
				i, ok := col[name]
				if !ok || i >= len(rec) {
					return ""
				}
				return strings.TrimSpace(rec[i])
			}

			siteID := get(colSiteID)
			if siteID == "" {
				if !yield(SiteRecord{}, Errf(KindMalformedRecord, a.Carrier, "", "blank %s", colSiteID)) {
					return
				}
				continue
			}

			lat, latErr := strconv.ParseFloat(get(colLatitude), 64)
			lon, lonErr := strconv.ParseFloat(get(colLongitude), 64)
			if latErr != nil || lonErr != nil {
				if !yield(SiteRecord{}, Errf(KindInvalidGeometry, a.Carrier, siteID,
					"unparseable coordinate: lat=%q lon=%q", get(colLatitude), get(colLongitude))) {
					return
				}
				continue
			}

			pos, err := a.Norm.NormalizePoint(lat, lon)
			if err != nil {
				if !yield(SiteRecord{}, Wrap(KindInvalidGeometry, a.Carrier, siteID, err)) {
					return
				}
				continue
			}

			var bands []string
			for _, bc := range dialect {
				if strings.EqualFold(get(bc.Column), "Y") {
					bands = append(bands, bc.Band)
				}
			}

			out := SiteRecord{
				SiteID:   siteID,
				Carrier:  a.Carrier,
				Position: pos,
				Bands:    bands,
			}
			if strings.EqualFold(get(colCoFunded), "Y") {
				out.CoFunded = true
				out.Program = get(colProgram)
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}
