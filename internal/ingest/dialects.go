package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// BandColumn maps a canonical frequency-band code to the column a carrier's
// export uses for it. In the current exports the two are the same string,
// but carriers have renamed columns between yearly drops before.
type BandColumn struct {
	Band   string `yaml:"band"`
	Column string `yaml:"column"`
}

// Dialect is the ordered band-column set for one carrier's tabular format.
type Dialect []BandColumn

// DialectRegistry holds per-carrier dialects keyed by lower-cased carrier
// name. Unknown carriers resolve to an empty dialect; the conflator then
// derives technology Unknown rather than rejecting the record.
type DialectRegistry map[string]Dialect

// For returns the dialect for a carrier, and whether one is registered.
func (r DialectRegistry) For(carrier string) (Dialect, bool) {
	d, ok := r[strings.ToLower(carrier)]
	return d, ok
}

// LoadDialects reads a registry from a YAML file of the form:
//
//	optus:
//	  - band: LTE700
//	    column: LTE700
//
// New carriers are added by shipping data, not code.
func LoadDialects(path string) (DialectRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialects: %w", err)
	}
	var byCarrier map[string]Dialect
	if err := yaml.Unmarshal(raw, &byCarrier); err != nil {
		return nil, fmt.Errorf("parse dialects: %w", err)
	}
	reg := make(DialectRegistry, len(byCarrier))
	for carrier, d := range byCarrier {
		for i, bc := range d {
			if bc.Band == "" {
				return nil, fmt.Errorf("dialect %s entry %d: band is required", carrier, i)
			}
			if bc.Column == "" {
				d[i].Column = bc.Band
			}
		}
		reg[strings.ToLower(carrier)] = d
	}
	return reg, nil
}

// DefaultDialects carries the hand-audited column sets of the three known
// carrier exports.
func DefaultDialects() DialectRegistry {
	same := func(bands ...string) Dialect {
		d := make(Dialect, len(bands))
		for i, b := range bands {
			d[i] = BandColumn{Band: b, Column: b}
		}
		return d
	}
	return DialectRegistry{
		"optus": same(
			"NBIoT700", "UMTS900", "UMTS2100", "LTE700", "LTE900",
			"LTE1800", "LTE2100", "LTE2300", "LTE2600", "NR900",
			"NR2100", "NR2300", "NR3500", "NR26000",
		),
		"telstra": same(
			"GSM900", "IoT700", "WCDMA850", "WCDMA2100", "LTE700",
			"LTE850", "LTE900", "LTE1800", "LTE2100", "LTE2600",
			"NR700", "NR850", "NR2100", "NR2600", "NR3600", "NR26000",
		),
		"tpg": same(
			"NBIoT850", "LTE700", "LTE850", "LTE1800", "LTE2100",
			"NR700", "NR1800", "NR2100", "NR3600", "NR26000",
		),
	}
}
