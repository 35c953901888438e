package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var htmlExtensions = []string{".html", ".htm", ".xhtml"}

// isHTMLFile decides by file name whether path should be styled.
func isHTMLFile(path string) bool {
	return slices.Contains(htmlExtensions, strings.ToLower(filepath.Ext(path)))
}

// buildOutputPath places styled copy of src under dst keeping src path
// relative to the processed directory.
func buildOutputPath(rel, dst string) string {
	return filepath.Join(dst, filepath.Clean(rel))
}

// checkOutputPath refuses to overwrite source or, unless overwrite is set,
// any existing file.
func checkOutputPath(src, out string, overwrite bool) error {
	if filepath.Clean(src) == filepath.Clean(out) {
		return fmt.Errorf("destination would overwrite source (%s)", src)
	}
	fi, err := os.Stat(out)
	switch {
	case err == nil && fi.IsDir():
		return fmt.Errorf("destination is a directory (%s)", out)
	case err == nil && !overwrite:
		return fmt.Errorf("destination already exists (%s)", out)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("unable to access destination (%s): %w", out, err)
	}
	return nil
}
