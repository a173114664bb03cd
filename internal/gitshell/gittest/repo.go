// Package gittest provides throwaway git repository fixtures for tests
// exercising internal/gitshell and its consumers.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/stretchr/testify/require"
)

// TestRepo is a temporary local+remote git repo pair used by unit tests.
type TestRepo struct {
	Dir       string
	RemoteDir string
}

// NewTempRepo initializes a local repo with trunk branch "main" and a bare
// remote, with an initial commit already pushed.
func NewTempRepo(t *testing.T) *TestRepo {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "local")
	remoteDir := filepath.Join(t.TempDir(), "remote")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.MkdirAll(remoteDir, 0o755))

	run(t, dir, "init", "--initial-branch=main")
	run(t, remoteDir, "init", "--bare")
	run(t, dir, "config", "user.name", "diamond-test")
	run(t, dir, "config", "user.email", "diamond-test@nonexistent")
	run(t, dir, "remote", "add", "origin", remoteDir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hello\n"), 0o644))
	run(t, dir, "add", "README.md")
	run(t, dir, "commit", "-m", "initial commit")
	run(t, dir, "push", "origin", "main")
	run(t, dir, "remote", "set-head", "origin", "main")

	return &TestRepo{Dir: dir, RemoteDir: remoteDir}
}

// Repo opens the fixture as a *gitshell.Repo.
func (tr *TestRepo) Repo(t *testing.T) *gitshell.Repo {
	t.Helper()
	repo, err := gitshell.OpenRepo(tr.Dir, "origin")
	require.NoError(t, err)
	return repo
}

// CommitFile writes, stages, and commits a file on the currently checked-out branch.
func (tr *TestRepo) CommitFile(t *testing.T, filename, body string) string {
	t.Helper()
	fp := filepath.Join(tr.Dir, filename)
	require.NoError(t, os.WriteFile(fp, []byte(body), 0o644))
	run(t, tr.Dir, "add", filename)
	run(t, tr.Dir, "commit", "-m", "write "+filename)
	return run(t, tr.Dir, "rev-parse", "HEAD")
}

// AmendFile amends the last commit on the currently checked-out branch with new content.
func (tr *TestRepo) AmendFile(t *testing.T, filename, body string) string {
	t.Helper()
	fp := filepath.Join(tr.Dir, filename)
	require.NoError(t, os.WriteFile(fp, []byte(body), 0o644))
	run(t, tr.Dir, "add", filename)
	run(t, tr.Dir, "commit", "--amend", "--no-edit")
	return run(t, tr.Dir, "rev-parse", "HEAD")
}

// CreateBranch creates and checks out a new branch from the current HEAD.
func (tr *TestRepo) CreateBranch(t *testing.T, name string) {
	t.Helper()
	run(t, tr.Dir, "checkout", "-b", name)
}

// Checkout checks out an existing branch.
func (tr *TestRepo) Checkout(t *testing.T, name string) {
	t.Helper()
	run(t, tr.Dir, "checkout", name)
}

// Head returns the SHA of the given branch's current tip.
func (tr *TestRepo) Head(t *testing.T, branch string) string {
	t.Helper()
	return run(t, tr.Dir, "rev-parse", branch)
}

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
	return trimNewline(string(out))
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
