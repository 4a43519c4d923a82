package util

import (
	"path/filepath"
	"unicode/utf8"
)

// MaxLogBodySize is the default limit for bodies written to logs.
const MaxLogBodySize = 10 * 1024

// TruncateBody shortens data to at most maxSize bytes, cut on a rune
// boundary, and marks the cut. A maxSize of zero or less means
// MaxLogBodySize.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxLogBodySize
	}
	if len(data) <= maxSize {
		return data
	}
	cut := maxSize
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut] + "...(truncated)"
}

// ResolvePath resolves target relative to the directory of basePath.
// Absolute targets are returned cleaned.
func ResolvePath(basePath, target string) string {
	if target == "" || filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(filepath.Dir(basePath), target)
}
