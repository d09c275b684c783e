package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shinji-kodama/daseg-bootstrap/internal/command"
	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
)

// HeadState describes where a working tree's HEAD points.
type HeadState struct {
	// Commit is the full SHA HEAD resolves to.
	Commit string `json:"commit"`

	// Branch is the short branch name, or empty when HEAD is detached.
	Branch string `json:"branch,omitempty"`

	// Tags lists every tag that points at HEAD.
	Tags []string `json:"tags,omitempty"`
}

// Detached reports whether HEAD is not on a branch.
func (h HeadState) Detached() bool {
	return h.Branch == ""
}

// AtTag reports whether HEAD is detached and the given tag points at it.
// A branch that happens to sit on the tagged commit does not count: the
// working tree must reference the tag, not a branch head.
func (h HeadState) AtTag(tag string) bool {
	return h.Detached() && slices.Contains(h.Tags, tag)
}

// Manager provides Git operations by invoking the git CLI through a
// command.Runner.
type Manager struct {
	runner *command.Runner
}

// NewManager creates a new Manager that runs git through runner.
//
// Credential prompts are disabled so that a clone needing authentication
// fails with git's exit status instead of blocking on the terminal.
func NewManager(runner *command.Runner) *Manager {
	return &Manager{runner: runner.WithEnv("GIT_TERMINAL_PROMPT=0")}
}

// Clone clones url into dest.
//
// git itself refuses to clone into an existing non-empty directory, which
// is what makes a second provisioning run fail at its first clone step.
// An existing empty directory is accepted, as git accepts it; only a
// destination with content makes the clone fail.
// The parent of dest must already exist.
func (m *Manager) Clone(ctx context.Context, url, dest string) error {
	parent := filepath.Dir(dest)
	if err := m.runner.Run(ctx, parent, "git", "clone", url, dest); err != nil {
		return model.WrapCLIError(model.ExitGitError, fmt.Sprintf("failed to clone %s into %s", url, dest), err)
	}
	return nil
}

// Checkout moves the working tree at repoPath to the given tag, leaving
// HEAD detached at the tagged commit.
//
// The "tags/" prefix makes git resolve the name only as a tag, so a branch
// with the same name can never be picked up instead.
func (m *Manager) Checkout(ctx context.Context, repoPath, tag string) error {
	if err := m.runner.Run(ctx, repoPath, "git", "-C", repoPath, "checkout", "tags/"+tag); err != nil {
		return model.WrapCLIError(model.ExitGitError, fmt.Sprintf("failed to check out tag %s in %s", tag, repoPath), err)
	}
	return nil
}

// TagExists checks whether a tag with the given name exists in the repository.
//
// This uses `git rev-parse --verify --quiet refs/tags/<tag>` which exits with
// code 0 if the ref exists and non-zero otherwise.
func (m *Manager) TagExists(ctx context.Context, repoPath, tag string) bool {
	_, err := m.runGit(ctx, repoPath, "rev-parse", "--verify", "--quiet", "refs/tags/"+tag)
	return err == nil
}

// Head returns the commit, branch, and tags of HEAD in repoPath.
func (m *Manager) Head(ctx context.Context, repoPath string) (*HeadState, error) {
	commit, err := m.runGit(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}

	// `git rev-parse --abbrev-ref HEAD` returns "HEAD" for a detached HEAD.
	branch, err := m.runGit(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}
	branch = strings.TrimSpace(branch)
	if branch == "HEAD" {
		branch = ""
	}

	tagsOut, err := m.runGit(ctx, repoPath, "tag", "--points-at", "HEAD")
	if err != nil {
		return nil, err
	}

	return &HeadState{
		Commit: strings.TrimSpace(commit),
		Branch: branch,
		Tags:   splitLines(tagsOut),
	}, nil
}

// IsRepository checks whether path is the top of a Git working tree, i.e.
// contains a .git directory (a regular clone) or a .git file (a worktree
// or submodule pointing elsewhere).
func (m *Manager) IsRepository(path string) bool {
	gitPath := filepath.Join(path, ".git")

	// os.Lstat avoids following symlinks; a symlinked .git is not something
	// `git clone` produces.
	info, err := os.Lstat(gitPath)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return true
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(string(content), "gitdir:")
}

// runGit executes a git inspection command in repoPath and returns stdout.
//
// The repoPath parameter is passed to git via the -C flag, which causes git
// to change to that directory before doing anything else.
func (m *Manager) runGit(ctx context.Context, repoPath string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)

	out, err := m.runner.Output(ctx, repoPath, "git", fullArgs...)
	if err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		var cmdErr *command.Error
		if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
			message = fmt.Sprintf("%s: %s", message, cmdErr.Stderr)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, err)
	}
	return out, nil
}

// splitLines returns the non-empty, trimmed lines of s.
func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
