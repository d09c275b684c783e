// Package main is the entry point for the daseg-bootstrap CLI.
//
// This binary provisions the dialogue-act segmentation research environment:
// the corpus tools, the spaCy model, and a pinned toolkit release, all under
// ./deps. It delegates all functionality to the internal/cli package, which
// defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development, they default to "dev", "none", and "unknown"
// respectively.
package main

import (
	"github.com/shinji-kodama/daseg-bootstrap/internal/cli"
)

// version, commit, and date are set at build time via
// -ldflags "-X main.version=...". They back the --version flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Execute handles error formatting and exit codes, including the exit
	// status of a failing external tool.
	cli.Execute(cli.NewRootCommand())
}
