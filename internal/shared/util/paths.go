package util

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CleanPattern normalizes an exclude pattern for glob compilation:
// backslashes become slashes and `./` prefixes are dropped. "." cleans to "".
func CleanPattern(pattern string) string {
	clean := path.Clean(strings.TrimSpace(strings.ReplaceAll(pattern, `\`, "/")))
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// IsPathPattern reports whether pattern matches a path relative to the scan
// root instead of a base name.
func IsPathPattern(pattern string) bool {
	return strings.ContainsAny(pattern, `/\`)
}

// WriteReportFile writes data to path, creating parent directories.
func WriteReportFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
