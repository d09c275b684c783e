package python

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeInit writes content as rel inside a fresh tree and returns the tree.
func writeInit(t *testing.T, rel, content string) string {
	t.Helper()
	tree := t.TempDir()
	path := filepath.Join(tree, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return tree
}

func TestPackageInit(t *testing.T) {
	tests := []struct {
		name string
		rel  string
	}{
		{"src layout", "src/transformers/__init__.py"},
		{"flat layout", "transformers/__init__.py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := writeInit(t, tt.rel, "\n")
			path, err := PackageInit(tree, "transformers")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(tree, filepath.FromSlash(tt.rel)), path)
		})
	}

	t.Run("missing package", func(t *testing.T) {
		_, err := PackageInit(t.TempDir(), "transformers")
		assert.ErrorContains(t, err, "package transformers not found")
	})
}

// TestMissingExports checks whole-word matching against the package's
// __init__.py, as laid out in the toolkit's 2.x releases.
func TestMissingExports(t *testing.T) {
	tree := writeInit(t, "src/transformers/__init__.py", `
from .modeling_auto import AutoModelForTokenClassification, AutoModelWithLMHead
from .tokenization_auto import AutoTokenizer
from .tokenization_longformer import LongformerTokenizerFast
`)

	missing, err := MissingExports(tree, "transformers", []string{
		"AutoTokenizer",
		"AutoModelForTokenClassification",
		"LongformerTokenizer",
		"ReformerTokenizer",
	})
	require.NoError(t, err)

	// LongformerTokenizerFast must not satisfy LongformerTokenizer.
	assert.Equal(t, []string{"LongformerTokenizer", "ReformerTokenizer"}, missing)
}

func TestMissingExports_NoPackage(t *testing.T) {
	_, err := MissingExports(t.TempDir(), "transformers", []string{"AutoTokenizer"})
	assert.Error(t, err)
}
