// Package model defines the domain types and value objects for the
// daseg-bootstrap CLI.
//
// This package contains pure data structures with no external dependencies.
// Steps, step results, and run reports are transient representations built
// while a provisioning run executes. The only persistent state is what the
// external tools leave on disk.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
