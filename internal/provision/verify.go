package provision

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/shinji-kodama/daseg-bootstrap/internal/config"
	"github.com/shinji-kodama/daseg-bootstrap/internal/gitrepo"
	"github.com/shinji-kodama/daseg-bootstrap/internal/manifest"
	"github.com/shinji-kodama/daseg-bootstrap/internal/python"
)

// Check is the outcome of one post-condition.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Verification collects the checks Verify ran.
type Verification struct {
	Layout *Layout `json:"layout"`
	Checks []Check `json:"checks"`
}

// Passed reports whether every check passed.
func (v *Verification) Passed() bool {
	for _, c := range v.Checks {
		if !c.Passed {
			return false
		}
	}
	return len(v.Checks) > 0
}

// Failed returns the checks that did not pass.
func (v *Verification) Failed() []Check {
	var failed []Check
	for _, c := range v.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

func (v *Verification) add(name string, passed bool, detail string) {
	v.Checks = append(v.Checks, Check{Name: name, Passed: passed, Detail: detail})
}

// Verify inspects the dependency directory described by cfg and checks the
// state a successful run leaves behind:
//   - the directory holds exactly the corpus and toolkit subdirectories
//   - the corpus clone carries a manifest declaring the expected package
//   - the toolkit's HEAD is detached at the pinned tag, not on a branch
//   - the toolkit package at that tag exports the configured names
//
// Checks that cannot run because an earlier prerequisite is missing are
// reported as failed with an explanatory detail. The returned error is only
// for problems that prevent verification altogether.
func Verify(ctx context.Context, cfg *config.Config, git *gitrepo.Manager) (*Verification, error) {
	layout, err := NewLayout(cfg)
	if err != nil {
		return nil, err
	}
	v := &Verification{Layout: layout}

	entries, err := os.ReadDir(layout.DepsDir)
	if err != nil {
		v.add("dependency directory exists", false, err.Error())
		return v, nil
	}
	v.add("dependency directory exists", true, layout.DepsDir)

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	slices.Sort(dirs)
	want := []string{cfg.Corpus.Name, cfg.Toolkit.Name}
	slices.Sort(want)
	v.add("exactly two project directories",
		slices.Equal(dirs, want),
		fmt.Sprintf("found [%s], want [%s]", strings.Join(dirs, ", "), strings.Join(want, ", ")))

	// Corpus: clone + manifest.
	v.add("corpus is a git clone", git.IsRepository(layout.CorpusDir), layout.CorpusDir)

	name, err := manifest.PackageName(layout.ManifestPath)
	switch {
	case err != nil:
		v.add("manifest declares package", false, err.Error())
	case name != cfg.Corpus.Name:
		v.add("manifest declares package", false, fmt.Sprintf("declares %q, want %q", name, cfg.Corpus.Name))
	default:
		v.add("manifest declares package", true, name)
	}

	// Toolkit: clone, pinned tag, required exports.
	if !git.IsRepository(layout.ToolkitDir) {
		v.add("toolkit is a git clone", false, layout.ToolkitDir)
		v.add("pinned tag exists in clone", false, "toolkit clone missing")
		v.add("toolkit pinned to tag", false, "toolkit clone missing")
		if len(cfg.Toolkit.Exports) > 0 {
			v.add("toolkit provides required names", false, "toolkit clone missing")
		}
		return v, nil
	}
	v.add("toolkit is a git clone", true, layout.ToolkitDir)

	if git.TagExists(ctx, layout.ToolkitDir, cfg.Toolkit.Tag) {
		v.add("pinned tag exists in clone", true, cfg.Toolkit.Tag)
	} else {
		v.add("pinned tag exists in clone", false, fmt.Sprintf("no tag %s in %s", cfg.Toolkit.Tag, layout.ToolkitDir))
	}

	head, err := git.Head(ctx, layout.ToolkitDir)
	switch {
	case err != nil:
		v.add("toolkit pinned to tag", false, err.Error())
	case head.AtTag(cfg.Toolkit.Tag):
		v.add("toolkit pinned to tag", true, fmt.Sprintf("%s at %s", cfg.Toolkit.Tag, shortSHA(head.Commit)))
	case !head.Detached():
		v.add("toolkit pinned to tag", false, fmt.Sprintf("on branch %s, want tag %s", head.Branch, cfg.Toolkit.Tag))
	default:
		v.add("toolkit pinned to tag", false, fmt.Sprintf("detached at %s, want tag %s", shortSHA(head.Commit), cfg.Toolkit.Tag))
	}

	// The research code imports these names from the toolkit; a tag that
	// predates them would install fine and fail at import time.
	if len(cfg.Toolkit.Exports) > 0 {
		missing, err := python.MissingExports(layout.ToolkitDir, cfg.Toolkit.Name, cfg.Toolkit.Exports)
		switch {
		case err != nil:
			v.add("toolkit provides required names", false, err.Error())
		case len(missing) > 0:
			v.add("toolkit provides required names", false, "missing "+strings.Join(missing, ", "))
		default:
			v.add("toolkit provides required names", true, strings.Join(cfg.Toolkit.Exports, ", "))
		}
	}

	return v, nil
}

// shortSHA abbreviates a commit hash for display.
func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
