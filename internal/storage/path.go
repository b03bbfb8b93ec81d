package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolvePath turns a stored path into an absolute location under root.
// Absolute stored paths are used as-is once cleaned, relative ones are joined to root.
// "." and ".." segments are normalised; anything that lands outside root, or on root itself,
// is rejected with ErrPathEscapesRoot.
func ResolvePath(root, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path: %w", ErrPathEscapesRoot)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve storage root: %w", err)
	}

	var resolved string
	if filepath.IsAbs(p) {
		resolved = filepath.Clean(p)
	} else {
		resolved = filepath.Join(absRoot, p)
	}

	if !Within(absRoot, resolved) {
		return "", fmt.Errorf("%q: %w", p, ErrPathEscapesRoot)
	}
	return resolved, nil
}

// Within reports whether p lies strictly below dir. Both must be clean absolute paths.
func Within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
