package python

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// PackageInit returns the __init__.py of package pkg inside a source tree.
// Both the src layout (src/<pkg>/__init__.py) and the flat layout
// (<pkg>/__init__.py) are recognized, in that order.
func PackageInit(tree, pkg string) (string, error) {
	candidates := []string{
		filepath.Join(tree, "src", pkg, "__init__.py"),
		filepath.Join(tree, pkg, "__init__.py"),
	}
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("package %s not found in %s", pkg, tree)
}

// MissingExports returns the names in want that the package's __init__.py
// never mentions as a whole word. The check is textual: a name counts as
// exported when the package imports or defines it at top level, which is
// how the toolkit's release tags expose their public classes.
func MissingExports(tree, pkg string, want []string) ([]string, error) {
	path, err := PackageInit(tree, pkg)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var missing []string
	for _, name := range want {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		if !re.Match(data) {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
