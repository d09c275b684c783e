// Package command runs the external tools the installer drives (git,
// python, pip) as child processes.
//
// Tool output is streamed straight to the user's terminal so that a failure
// looks exactly like running the tool by hand. The tail of stderr is also
// kept in memory and attached to the returned error for the final summary.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// stderrTailSize bounds how much stderr is retained for error messages.
const stderrTailSize = 4096

// Error describes a failed child process. It wraps the underlying
// *exec.Error or *exec.ExitError so callers can recover the tool's exit
// status with errors.As.
type Error struct {
	// Name is the executable that was run.
	Name string

	// Args are the arguments passed to the executable.
	Args []string

	// Dir is the working directory of the child process.
	Dir string

	// Stderr is the trailing portion of what the tool wrote to stderr.
	Stderr string

	// Err is the error returned by exec.Cmd.Run.
	Err error
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed", e.CommandLine())
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying exec error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CommandLine renders the command as a single shell-like string.
func (e *Error) CommandLine() string {
	return strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
}

// Runner executes child processes with a shared output destination and
// environment.
//
// The zero value is not usable; create one with NewRunner.
type Runner struct {
	stdout io.Writer
	stderr io.Writer
	env    []string
	logger *log.Logger
}

// NewRunner creates a Runner that streams child output to stdout/stderr.
// A nil writer discards that stream. A nil logger discards log output.
func NewRunner(stdout, stderr io.Writer, logger *log.Logger) *Runner {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{stdout: stdout, stderr: stderr, logger: logger}
}

// WithEnv returns a copy of the runner that appends extra KEY=VALUE pairs
// to the inherited process environment.
func (r *Runner) WithEnv(env ...string) *Runner {
	cp := *r
	cp.env = append(append([]string{}, r.env...), env...)
	return &cp
}

// Run executes name with args in dir and waits for it to finish.
// Output is streamed; the returned error is a *Error on failure.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) error {
	tail := newTailBuffer(stderrTailSize)

	// #nosec G204: the executable and arguments come from the installer's
	// own configuration, not from untrusted input.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = r.environ()
	cmd.Stdout = r.stdout
	cmd.Stderr = io.MultiWriter(r.stderr, tail)

	r.logger.Debug("exec", "cmd", name, "args", strings.Join(args, " "), "dir", dir)
	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("exec finished", "cmd", name, "elapsed", time.Since(start).Round(time.Millisecond))

	if err != nil {
		return &Error{Name: name, Args: args, Dir: dir, Stderr: strings.TrimSpace(tail.String()), Err: err}
	}
	return nil
}

// Output executes name with args in dir and returns its stdout.
// Nothing is streamed; stderr is captured for the error message only.
// It is used for short inspection commands such as `git rev-parse`.
func (r *Runner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	var stdout strings.Builder
	tail := newTailBuffer(stderrTailSize)

	// #nosec G204: see Run.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = r.environ()
	cmd.Stdout = &stdout
	cmd.Stderr = tail

	r.logger.Debug("exec", "cmd", name, "args", strings.Join(args, " "), "dir", dir)
	if err := cmd.Run(); err != nil {
		return "", &Error{Name: name, Args: args, Dir: dir, Stderr: strings.TrimSpace(tail.String()), Err: err}
	}
	return stdout.String(), nil
}

// environ returns the child environment: the current process environment
// plus any extra pairs configured with WithEnv.
func (r *Runner) environ() []string {
	env := os.Environ()
	return append(env, r.env...)
}

// tailBuffer is an io.Writer that keeps only the last max bytes written.
type tailBuffer struct {
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
