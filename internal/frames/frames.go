// Package frames enumerates frame files of an image sequence directory.
package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var DefaultExtensions = []string{".jpg", ".jpeg"}

// List returns the paths of the regular files in dir whose extension matches
// one of exts (case-insensitive), sorted by name. With no exts the
// DefaultExtensions are used.
func List(dir string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory '%s': %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == strings.ToLower(want) {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}
