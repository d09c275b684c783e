// Package testutil holds fixtures shared by package tests: throwaway Git
// repositories that stand in for the upstream projects, and a fake Python
// interpreter that records how it was called.
package testutil

import (
	"archive/zip"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ToolkitInit is a toolkit package __init__.py exporting every name the
// default configuration requires. Fixtures place it at
// src/transformers/__init__.py.
const ToolkitInit = `from .modeling_auto import AutoModelForTokenClassification
from .tokenization_auto import AutoTokenizer
from .tokenization_longformer import LongformerTokenizer
from .tokenization_reformer import ReformerTokenizer
`

// RequireGit skips the test when git is not on PATH.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// RunGit runs git in dir and fails the test on a non-zero exit.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// InitRepo creates a Git repository under a fresh temp dir with files
// committed in a single commit. Each tag in tags is created on that commit.
// It returns the repository path, usable as a clone URL.
func InitRepo(t *testing.T, files map[string][]byte, tags ...string) string {
	t.Helper()
	RequireGit(t)

	dir := t.TempDir()
	RunGit(t, dir, "init")
	RunGit(t, dir, "config", "user.email", "test@example.com")
	RunGit(t, dir, "config", "user.name", "Test User")

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}
	RunGit(t, dir, "add", ".")
	RunGit(t, dir, "commit", "-m", "initial commit")

	for _, tag := range tags {
		RunGit(t, dir, "tag", tag)
	}
	return dir
}

// CommitFile adds one more commit to repo writing content to name.
func CommitFile(t *testing.T, repo, name string, content []byte) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(repo, name), content, 0o644))
	RunGit(t, repo, "add", name)
	RunGit(t, repo, "commit", "-m", "update "+name)
}

// ZipBytes returns a zip archive containing the given entries.
func ZipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// FakeInterpreter is a shell script posing as a Python interpreter. Every
// invocation appends "<cwd>|<args>" to its call log, records what setup.py
// in its working directory declared at that moment, and exits with Status.
type FakeInterpreter struct {
	// Path is the executable to configure as the interpreter.
	Path string

	// LogPath is the call log.
	LogPath string

	// ManifestLogPath holds one line per invocation: the package name a
	// double-quoted name="..." in ./setup.py declares, "?" when setup.py
	// exists without one, and "-" when there is no setup.py.
	ManifestLogPath string
}

// NewFakeInterpreter writes a fake interpreter that exits with status.
// When failOn is non-empty, only invocations whose arguments contain failOn
// exit with status; all others succeed.
func NewFakeInterpreter(t *testing.T, status int, failOn string) *FakeInterpreter {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter is a POSIX shell script")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	fake := &FakeInterpreter{
		Path:            filepath.Join(dir, "fake-python"),
		LogPath:         filepath.Join(dir, "calls.log"),
		ManifestLogPath: filepath.Join(dir, "manifests.log"),
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("echo \"$(pwd -P)|$*\" >> '" + fake.LogPath + "'\n")
	b.WriteString(`if [ -f setup.py ]; then n=$(sed -n 's/.*name="\([^"]*\)".*/\1/p' setup.py | head -n 1); echo "${n:-?}"; else echo -; fi`)
	b.WriteString(" >> '" + fake.ManifestLogPath + "'\n")
	if failOn != "" {
		b.WriteString("case \"$*\" in *'" + failOn + "'*) exit " + strconv.Itoa(status) + " ;; esac\n")
		b.WriteString("exit 0\n")
	} else {
		b.WriteString("exit " + strconv.Itoa(status) + "\n")
	}
	require.NoError(t, os.WriteFile(fake.Path, []byte(b.String()), 0o755))
	return fake
}

// Calls returns the recorded invocations in order. A missing log means the
// interpreter was never run.
func (f *FakeInterpreter) Calls(t *testing.T) []string {
	t.Helper()

	data, err := os.ReadFile(f.LogPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// Manifests returns the manifest observations in invocation order, in the
// format described on ManifestLogPath.
func (f *FakeInterpreter) Manifests(t *testing.T) []string {
	t.Helper()

	data, err := os.ReadFile(f.ManifestLogPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// Resolve returns path with symlinks evaluated, for comparing against the
// physical working directory the fake interpreter records.
func Resolve(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return resolved
}
