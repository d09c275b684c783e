// Package python drives the Python tooling the research environment needs:
// pip for editable installs and spaCy's model downloader.
//
// Everything goes through `<interpreter> -m <module>` so that pip and spaCy
// always belong to the same interpreter (and virtualenv) the user selected.
package python

import (
	"context"
	"fmt"

	"github.com/shinji-kodama/daseg-bootstrap/internal/command"
	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
)

// DefaultInterpreter is used when no interpreter is configured.
const DefaultInterpreter = "python"

// Installer runs pip and spaCy through a Python interpreter.
type Installer struct {
	runner      *command.Runner
	interpreter string
}

// NewInstaller creates an Installer that invokes interpreter through runner.
// An empty interpreter falls back to DefaultInterpreter.
func NewInstaller(runner *command.Runner, interpreter string) *Installer {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	return &Installer{runner: runner, interpreter: interpreter}
}

// EditableInstallArgs returns the interpreter arguments for an editable
// install of the current directory.
func EditableInstallArgs() []string {
	return []string{"-m", "pip", "install", "-e", "."}
}

// ModelDownloadArgs returns the interpreter arguments that download the
// named spaCy model.
func ModelDownloadArgs(name string) []string {
	return []string{"-m", "spacy", "download", name}
}

// EditableInstall registers the source tree at dir with pip in editable
// mode. pip resolves and installs the tree's declared dependencies; any
// resolution failure surfaces as pip's own exit status.
func (i *Installer) EditableInstall(ctx context.Context, dir string) error {
	if err := i.runner.Run(ctx, dir, i.interpreter, EditableInstallArgs()...); err != nil {
		return model.WrapCLIError(model.ExitInstallError, fmt.Sprintf("editable install of %s failed", dir), err)
	}
	return nil
}

// DownloadModel downloads and installs the named pretrained spaCy model.
// dir is only the working directory for the child process; the model is
// installed into the interpreter's environment.
func (i *Installer) DownloadModel(ctx context.Context, dir, name string) error {
	if err := i.runner.Run(ctx, dir, i.interpreter, ModelDownloadArgs(name)...); err != nil {
		return model.WrapCLIError(model.ExitInstallError, fmt.Sprintf("download of spaCy model %s failed", name), err)
	}
	return nil
}
