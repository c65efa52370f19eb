package ioadapter

import "strings"

// Compression is the byte-stream wrapping a concrete backend must layer
// around its record encoding, inferred from a path's filename suffix
// per §6 ("Compression is inferred from suffix: .gz, .zst, .bz2, .xz").
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionBzip2
	CompressionXZ
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

// CompressionFor infers the compression layer from path's filename
// suffix. Only the suffix is consulted; no file content is read.
func CompressionFor(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(lower, ".zst"):
		return CompressionZstd
	case strings.HasSuffix(lower, ".bz2"):
		return CompressionBzip2
	case strings.HasSuffix(lower, ".xz"):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

func stripCompressionSuffix(path string) string {
	if CompressionFor(path) == CompressionNone {
		return path
	}
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return path
	}
	return path[:idx]
}
