package gitrepo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/daseg-bootstrap/internal/command"
	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
	"github.com/shinji-kodama/daseg-bootstrap/internal/testutil"
)

// setupTestRepo creates a repository with a single commit tagged "v1.0.0"
// and a second, untagged commit on top. Cloning it therefore leaves HEAD on
// a branch one commit past the tag, which is the situation the pinned-tag
// checkout has to fix.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	repo := testutil.InitRepo(t, map[string][]byte{
		"README.md": []byte("# Test Repo\n"),
	}, "v1.0.0")
	testutil.CommitFile(t, repo, "CHANGES.md", []byte("unreleased\n"))
	return repo
}

func newTestManager() *Manager {
	return NewManager(command.NewRunner(nil, nil, nil))
}

// TestClone verifies that Clone produces a working tree at the destination.
func TestClone(t *testing.T) {
	origin := setupTestRepo(t)
	m := newTestManager()

	dest := filepath.Join(t.TempDir(), "swda")
	require.NoError(t, m.Clone(context.Background(), origin, dest))

	assert.True(t, m.IsRepository(dest), "clone destination should be a git repository")
	_, err := os.Stat(filepath.Join(dest, "README.md"))
	assert.NoError(t, err, "cloned files should be present")
}

// TestClone_ExistingDestination verifies that a second clone into the same
// path fails and that git's exit status survives the error wrapping.
func TestClone_ExistingDestination(t *testing.T) {
	origin := setupTestRepo(t)
	m := newTestManager()

	dest := filepath.Join(t.TempDir(), "swda")
	require.NoError(t, m.Clone(context.Background(), origin, dest))

	err := m.Clone(context.Background(), origin, dest)
	require.Error(t, err, "cloning into an existing non-empty directory must fail")

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGitError, cliErr.Code)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.NotZero(t, exitErr.ExitCode())
	assert.Equal(t, model.ExitCode(exitErr.ExitCode()), model.ExitCodeOf(err))
}

// TestClone_EmptyDestination verifies that an existing but empty
// directory is an acceptable clone target, matching git.
func TestClone_EmptyDestination(t *testing.T) {
	origin := setupTestRepo(t)
	m := newTestManager()

	dest := filepath.Join(t.TempDir(), "swda")
	require.NoError(t, os.Mkdir(dest, 0o755))

	require.NoError(t, m.Clone(context.Background(), origin, dest))
	assert.True(t, m.IsRepository(dest))
}

// TestNewManager_DisablesTerminalPrompt verifies that git never waits for
// credentials on the terminal.
func TestNewManager_DisablesTerminalPrompt(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	m := newTestManager()

	out, err := m.runner.Output(context.Background(), t.TempDir(), "sh", "-c", "printf %s \"$GIT_TERMINAL_PROMPT\"")
	require.NoError(t, err)
	assert.Equal(t, "0", out)
}

func TestClone_BadURL(t *testing.T) {
	setupTestRepo(t) // skip when git is missing
	m := newTestManager()

	dest := filepath.Join(t.TempDir(), "nothing")
	err := m.Clone(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), dest)
	assert.Error(t, err)
}

// TestCheckout verifies that Checkout detaches HEAD at the pinned tag.
func TestCheckout(t *testing.T) {
	origin := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "transformers")
	require.NoError(t, m.Clone(ctx, origin, dest))

	before, err := m.Head(ctx, dest)
	require.NoError(t, err)
	assert.False(t, before.Detached(), "a fresh clone should be on the default branch")
	assert.False(t, before.AtTag("v1.0.0"))

	require.NoError(t, m.Checkout(ctx, dest, "v1.0.0"))

	after, err := m.Head(ctx, dest)
	require.NoError(t, err)
	assert.True(t, after.Detached())
	assert.True(t, after.AtTag("v1.0.0"))
	assert.NotEqual(t, before.Commit, after.Commit)

	// The post-release file must be gone after moving back to the tag.
	_, statErr := os.Stat(filepath.Join(dest, "CHANGES.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCheckout_MissingTag(t *testing.T) {
	origin := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "transformers")
	require.NoError(t, m.Clone(ctx, origin, dest))

	err := m.Checkout(ctx, dest, "v9.9.9")
	require.Error(t, err)
	assert.NotEqual(t, model.ExitSuccess, model.ExitCodeOf(err))
}

// TestCheckout_PrefersTagOverBranch checks that a branch sharing the tag's
// name is not what ends up checked out.
func TestCheckout_PrefersTagOverBranch(t *testing.T) {
	origin := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "transformers")
	require.NoError(t, m.Clone(ctx, origin, dest))
	testutil.RunGit(t, dest, "branch", "v1.0.0-shadow")

	require.NoError(t, m.Checkout(ctx, dest, "v1.0.0"))
	head, err := m.Head(ctx, dest)
	require.NoError(t, err)
	assert.True(t, head.AtTag("v1.0.0"))
}

func TestTagExists(t *testing.T) {
	repo := setupTestRepo(t)
	m := newTestManager()

	assert.True(t, m.TagExists(context.Background(), repo, "v1.0.0"))
	assert.False(t, m.TagExists(context.Background(), repo, "v2.0.0"))
}

// TestHead_BranchOnTaggedCommit verifies that sitting on a branch whose tip
// is tagged does not count as being at the tag.
func TestHead_BranchOnTaggedCommit(t *testing.T) {
	repo := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	testutil.RunGit(t, repo, "tag", "v1.1.0")

	head, err := m.Head(ctx, repo)
	require.NoError(t, err)
	assert.Contains(t, head.Tags, "v1.1.0")
	assert.False(t, head.Detached())
	assert.False(t, head.AtTag("v1.1.0"))
}

func TestHead_NotARepository(t *testing.T) {
	setupTestRepo(t) // skip when git is missing
	m := newTestManager()

	_, err := m.Head(context.Background(), t.TempDir())
	require.Error(t, err)

	var cliErr *model.CLIError
	assert.True(t, errors.As(err, &cliErr))
}

// TestIsRepository distinguishes plain directories, clones, and gitdir files.
func TestIsRepository(t *testing.T) {
	m := newTestManager()

	t.Run("plain directory", func(t *testing.T) {
		assert.False(t, m.IsRepository(t.TempDir()))
	})

	t.Run(".git directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
		assert.True(t, m.IsRepository(dir))
	})

	t.Run(".git file with gitdir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: /elsewhere\n"), 0o644))
		assert.True(t, m.IsRepository(dir))
	})

	t.Run(".git file without gitdir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("junk"), 0o644))
		assert.False(t, m.IsRepository(dir))
	})
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"v1", "v2"}, splitLines("v1\n\n  v2  \n"))
}
