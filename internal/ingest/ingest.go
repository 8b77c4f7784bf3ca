package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	HashHex      string
	Deduplicated bool // same content already seen by this ingestor
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Accepted returns the paths of files that should be processed, in scan order.
func Accepted(results []IngestionResult) []string {
	var out []string
	for _, r := range results {
		if r.Err == "" && !r.Deduplicated {
			out = append(out, r.SourcePath)
		}
	}
	return out
}

// AllowedExt reports whether ext names an accepted purchase-order format.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden reports dot files and the "~$" lock files office suites leave
// next to open documents.
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$")
}
