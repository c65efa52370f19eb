package ioadapter

import "strings"

// Format is the record encoding a concrete source/sink backend would use,
// inferred from a path's filename suffix at adapter construction time —
// never inside the operator graph core, per §4.6.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatCSV
	FormatColumnar
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatColumnar:
		return "columnar"
	default:
		return "unknown"
	}
}

// FormatFor infers a record format from path, after first stripping any
// compression suffix CompressionFor would recognize (e.g. "events.json.gz"
// infers JSON, not "gz").
func FormatFor(path string) Format {
	path = stripCompressionSuffix(path)
	switch {
	case hasAnySuffix(path, ".json", ".jsonl", ".ndjson"):
		return FormatJSON
	case hasAnySuffix(path, ".csv", ".tsv"):
		return FormatCSV
	case hasAnySuffix(path, ".parquet", ".orc", ".columnar"):
		return FormatColumnar
	default:
		return FormatUnknown
	}
}

func hasAnySuffix(path string, suffixes ...string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
