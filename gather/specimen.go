package gather

import (
	"path/filepath"
	"strings"
)

// Artifact suffixes recognized by the pipeline. A specimen label is always
// the artifact basename minus one of these.
const (
	// AbundanceSuffix marks per-specimen FAMLI abundance artifacts.
	AbundanceSuffix = ".json.gz"
	// FilteredSuffix marks per-specimen filtered tables.
	FilteredSuffix = ".csv.gz"
	// CombinedSuffix names the combined table; same serialization as the
	// filtered tables, but it is a run-level artifact, not a specimen one.
	CombinedSuffix = ".csv.gz"
	// ReadCountSuffix marks per-specimen total read count files.
	ReadCountSuffix = ".num_reads.txt"
)

// specimenSuffixes is ordered longest first so that SpecimenLabel strips
// the longest matching suffix.
var specimenSuffixes = []string{
	ReadCountSuffix,
	AbundanceSuffix,
	FilteredSuffix,
}

// SpecimenLabel derives the specimen label from an artifact path: the
// basename minus the longest matching recognized suffix. The second return
// value is false when no recognized suffix matches, or when stripping the
// suffix leaves nothing.
//
// This is the single place the filename-to-specimen convention lives;
// every stage that needs a label goes through here.
func SpecimenLabel(path string) (string, bool) {
	base := filepath.Base(path)
	for _, suffix := range specimenSuffixes {
		if strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
			return base[:len(base)-len(suffix)], true
		}
	}
	return "", false
}
