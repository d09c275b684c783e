package provision

import (
	"path/filepath"

	"github.com/shinji-kodama/daseg-bootstrap/internal/config"
	"github.com/shinji-kodama/daseg-bootstrap/internal/manifest"
)

// Layout is the set of absolute paths a provisioning run touches.
type Layout struct {
	// DepsDir is the dependency directory.
	DepsDir string `json:"depsDir" yaml:"deps_dir"`

	// CorpusDir is the corpus clone.
	CorpusDir string `json:"corpusDir" yaml:"corpus_dir"`

	// ManifestPath is the generated setup.py inside the corpus clone.
	ManifestPath string `json:"manifestPath" yaml:"manifest_path"`

	// ArchivePath is the bundled zip inside the corpus clone.
	ArchivePath string `json:"archivePath" yaml:"archive_path"`

	// ToolkitDir is the toolkit clone.
	ToolkitDir string `json:"toolkitDir" yaml:"toolkit_dir"`
}

// NewLayout computes the layout for cfg, resolving the dependency directory
// against the current working directory.
func NewLayout(cfg *config.Config) (*Layout, error) {
	depsDir, err := cfg.AbsDepsDir()
	if err != nil {
		return nil, err
	}

	corpusDir := filepath.Join(depsDir, cfg.Corpus.Name)
	return &Layout{
		DepsDir:      depsDir,
		CorpusDir:    corpusDir,
		ManifestPath: filepath.Join(corpusDir, manifest.FileName),
		ArchivePath:  filepath.Join(corpusDir, filepath.FromSlash(cfg.Corpus.Archive)),
		ToolkitDir:   filepath.Join(depsDir, cfg.Toolkit.Name),
	}, nil
}
