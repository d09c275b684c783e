package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/shinji-kodama/daseg-bootstrap/internal/archive"
	"github.com/shinji-kodama/daseg-bootstrap/internal/config"
	"github.com/shinji-kodama/daseg-bootstrap/internal/gitrepo"
	"github.com/shinji-kodama/daseg-bootstrap/internal/manifest"
	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
	"github.com/shinji-kodama/daseg-bootstrap/internal/python"
)

// Step is one unit of a plan: a description plus the action that performs it.
type Step struct {
	model.StepInfo

	// Action performs the step. It must honor ctx cancellation when it
	// runs a child process.
	Action func(ctx context.Context) error
}

// Plan is the ordered list of steps for one provisioning run.
type Plan struct {
	Layout *Layout
	Steps  []Step
}

// Infos returns the descriptions of every step, in order.
func (p *Plan) Infos() []model.StepInfo {
	infos := make([]model.StepInfo, len(p.Steps))
	for i, s := range p.Steps {
		infos[i] = s.StepInfo
	}
	return infos
}

// BuildPlan assembles the provisioning steps for cfg:
//
//  1. create the dependency directory
//  2. clone the corpus repository
//  3. write its packaging manifest
//  4. editable-install it
//  5. extract its bundled archive in place
//  6. download the spaCy model
//  7. clone the toolkit repository
//  8. check out the pinned tag
//  9. editable-install the toolkit
//
// Each step depends on the previous one having completed.
func BuildPlan(cfg *config.Config, git *gitrepo.Manager, py *python.Installer) (*Plan, error) {
	layout, err := NewLayout(cfg)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to resolve paths", err)
	}

	plan := &Plan{Layout: layout}
	add := func(kind model.StepKind, description, dir, target string, action func(ctx context.Context) error) {
		plan.Steps = append(plan.Steps, Step{
			StepInfo: model.StepInfo{
				Index:       len(plan.Steps) + 1,
				Kind:        kind,
				Description: description,
				Dir:         dir,
				Target:      target,
			},
			Action: action,
		})
	}

	add(model.KindMkdir, "create dependency directory", layout.DepsDir, layout.DepsDir,
		func(ctx context.Context) error {
			return createDepsDir(layout.DepsDir)
		})

	add(model.KindClone, "clone "+cfg.Corpus.URL, layout.DepsDir, layout.CorpusDir,
		func(ctx context.Context) error {
			return git.Clone(ctx, cfg.Corpus.URL, layout.CorpusDir)
		})

	add(model.KindManifest, fmt.Sprintf("write %s declaring package %q", manifest.FileName, cfg.Corpus.Name),
		layout.CorpusDir, layout.ManifestPath,
		func(ctx context.Context) error {
			if _, err := manifest.Write(layout.CorpusDir, cfg.Corpus.Name); err != nil {
				return model.WrapCLIError(model.ExitFilesystemError, "failed to write packaging manifest", err)
			}
			return nil
		})

	add(model.KindEditableInstall, "pip install -e "+cfg.Corpus.Name, layout.CorpusDir, layout.CorpusDir,
		func(ctx context.Context) error {
			return py.EditableInstall(ctx, layout.CorpusDir)
		})

	add(model.KindExtract, "extract "+cfg.Corpus.Archive, layout.CorpusDir, layout.ArchivePath,
		func(ctx context.Context) error {
			if _, err := archive.Extract(layout.ArchivePath, layout.CorpusDir); err != nil {
				return model.WrapCLIError(model.ExitArchiveError, "failed to extract bundled archive", err)
			}
			return nil
		})

	add(model.KindModelDownload, "download spaCy model "+cfg.SpacyModel, layout.DepsDir, "",
		func(ctx context.Context) error {
			return py.DownloadModel(ctx, layout.DepsDir, cfg.SpacyModel)
		})

	add(model.KindClone, "clone "+cfg.Toolkit.URL, layout.DepsDir, layout.ToolkitDir,
		func(ctx context.Context) error {
			return git.Clone(ctx, cfg.Toolkit.URL, layout.ToolkitDir)
		})

	add(model.KindCheckout, "check out tag "+cfg.Toolkit.Tag, layout.ToolkitDir, layout.ToolkitDir,
		func(ctx context.Context) error {
			return git.Checkout(ctx, layout.ToolkitDir, cfg.Toolkit.Tag)
		})

	add(model.KindEditableInstall, "pip install -e "+cfg.Toolkit.Name, layout.ToolkitDir, layout.ToolkitDir,
		func(ctx context.Context) error {
			return py.EditableInstall(ctx, layout.ToolkitDir)
		})

	return plan, nil
}

// createDepsDir creates the dependency directory. An existing directory is
// fine; an existing file at the path is not.
func createDepsDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return model.WrapCLIError(model.ExitFilesystemError, fmt.Sprintf("failed to create dependency directory %s", path), err)
	}
	return nil
}
