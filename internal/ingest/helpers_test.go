package ingest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

// gridSquare is a 1000m x 1000m square in projected grid coordinates,
// sitting near Sydney.
func gridSquare() orb.Polygon {
	return orb.Polygon{{
		{334000, 6250000},
		{335000, 6250000},
		{335000, 6251000},
		{334000, 6251000},
		{334000, 6250000},
	}}
}

// writeFile drops contents into dir under name and returns the full path.
func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
