package model

import (
	"errors"
	"fmt"
	"os/exec"
)

// ExitCode defines standard CLI exit codes.
// When an external tool fails, its own exit status is propagated instead
// (see ExitCodeOf), so these values only cover failures that happen inside
// the process or tools that died without a status.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration file, environment, or
	// flags could not be loaded or failed validation.
	ExitConfigError ExitCode = 2

	// ExitFilesystemError indicates a local filesystem operation failed
	// (creating the dependency directory, writing the manifest).
	ExitFilesystemError ExitCode = 3

	// ExitArchiveError indicates the bundled archive was missing or corrupt.
	ExitArchiveError ExitCode = 4

	// ExitGitError indicates a Git operation failed without an exit status
	// (e.g., git not installed).
	ExitGitError ExitCode = 5

	// ExitInstallError indicates the Python interpreter or installer could
	// not be started.
	ExitInstallError ExitCode = 6

	// ExitVerifyFailed indicates `verify` found a provisioned tree that does
	// not satisfy the expected post-conditions.
	ExitVerifyFailed ExitCode = 7

	// ExitInterrupted indicates the run was cancelled by SIGINT/SIGTERM.
	// 130 matches the shell convention of 128 + SIGINT.
	ExitInterrupted ExitCode = 130
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeOf determines the process exit code for err.
//
// Precedence:
//  1. nil → ExitSuccess
//  2. an *exec.ExitError anywhere in the chain with a positive status →
//     that status, so the first failing tool's code reaches the shell
//  3. the outermost *CLIError → its Code
//  4. anything else → ExitGeneralError
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return ExitCode(code)
		}
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	return ExitGeneralError
}
