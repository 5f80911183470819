// Package scan finds G-code programs waiting to be post-processed and
// derives the names of their outputs.
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gcode-slowdown/pkg/errors"
)

// Defaults used by the CLI.
const (
	DefaultExtension = ".gcode"
	DefaultSuffix    = "_unstring"
)

// OutputPath maps <stem><ext> to <stem><suffix><ext> in the same directory.
func OutputPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// IsOutput reports whether name already carries the output suffix.
func IsOutput(name, suffix string) bool {
	ext := filepath.Ext(name)
	return strings.HasSuffix(strings.TrimSuffix(name, ext), suffix)
}

// Eligible reports whether a file name should be processed: it has extension
// ext, a non-empty stem, and is not itself an output.
func Eligible(name, ext, suffix string) bool {
	if filepath.Ext(name) != ext {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		return false
	}
	return suffix == "" || !IsOutput(name, suffix)
}

// Find lists the eligible regular files directly inside dir, sorted by name.
func Find(dir, ext, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.ScanError(dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if Eligible(entry.Name(), ext, suffix) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
