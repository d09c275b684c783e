// Package manifest generates the minimal setuptools packaging descriptor
// that lets a plain source checkout be installed in editable mode.
//
// The corpus repository ships a single importable module but no setup.py,
// so pip cannot install it. The installer writes one in place before the
// first editable install.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// FileName is the manifest file written at the root of the source tree.
const FileName = "setup.py"

// Version is the placeholder version declared in every generated manifest.
const Version = "0.0.1"

// Render returns the setup.py content declaring package name with a single
// top-level module of the same name.
//
// The content is deterministic so repeated runs write identical bytes.
func Render(name string) []byte {
	return []byte(fmt.Sprintf(`from setuptools import setup

setup(
    name=%q,
    version=%q,
    py_modules=[%q],
)
`, name, Version, name))
}

// Write renders the manifest for name and writes it to dir/setup.py,
// overwriting any existing file. It returns the path written.
func Write(dir, name string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("source tree %s is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("source tree %s is not a directory", dir)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, Render(name), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// nameAssignment matches the first `name="..."` or `name='...'` keyword
// argument in a setup.py.
var nameAssignment = regexp.MustCompile(`(?m)\bname\s*=\s*["']([^"']+)["']`)

// PackageName reads the setup.py at path and returns the declared package
// name. Only the literal keyword-argument form is recognized, which is
// what Render produces.
func PackageName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}

	match := nameAssignment.FindSubmatch(data)
	if match == nil {
		return "", fmt.Errorf("manifest %s does not declare a package name", path)
	}
	return string(match[1]), nil
}
