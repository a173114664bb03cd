// Package gitshell is a thin, typed façade over the git CLI and over
// go-git plumbing reads. It exposes exactly the primitives the rest of
// Diamond's core needs: branch CRUD, rebase primitives, ref/blob I/O, and
// worktree inspection.
package gitshell

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	giturls "github.com/chainguard-dev/git-urls"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"
)

var ErrRemoteNotFound = errors.Sentinel("this repository doesn't have a remote configured")

const DefaultRemoteName = "origin"

// Repo is a handle to a git repository, used as the receiver for every
// gateway operation.
type Repo struct {
	repoDir string
	gitDir  string
	gitRepo *git.Repository
	log     logrus.FieldLogger
	remote  string
}

// OpenRepo opens the git repository rooted at repoDir.
func OpenRepo(repoDir string, remoteName string) (*Repo, error) {
	gg, err := git.PlainOpenWithOptions(repoDir, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open git repo")
	}
	wt, err := gg.Worktree()
	gitDir := filepath.Join(repoDir, ".git")
	if err == nil {
		gitDir = wt.Filesystem.Root()
	}
	if remoteName == "" {
		remoteName = DefaultRemoteName
	}
	return &Repo{
		repoDir: repoDir,
		gitDir:  gitDir,
		gitRepo: gg,
		log:     logrus.WithField("repo", filepath.Base(repoDir)),
		remote:  remoteName,
	}, nil
}

func (r *Repo) Dir() string     { return r.repoDir }
func (r *Repo) GitDir() string  { return r.gitDir }
func (r *Repo) GoGit() *git.Repository { return r.gitRepo }

// InternalDir is the directory where Diamond stores its non-ref state:
// <git-dir>/diamond.
func (r *Repo) InternalDir() string {
	dir := filepath.Join(r.gitDir, "diamond")
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

func (r *Repo) RemoteName() string { return r.remote }

// RunOpts configures a git subprocess invocation.
type RunOpts struct {
	Args []string
	Env  []string
	// ExitError requests that a non-zero exit code be turned into an error.
	ExitError bool
	Stdin     []byte
	// Interactive wires the subprocess directly to the CLI's stdin/stdout/
	// stderr instead of capturing them, for commands that open $EDITOR or
	// an interactive rebase (commit, commit --amend, rebase -i).
	Interactive bool
}

// Output is the captured result of a git subprocess invocation.
type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (o *Output) Lines() []string {
	s := strings.TrimSpace(string(o.Stdout))
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// RunError wraps a non-zero git exit for StderrContains-style matching.
type RunError struct {
	Args     []string
	Output   *Output
	ExitCode int
}

func (e *RunError) Error() string {
	return fmt.Sprintf("git %s: exit status %d: %s", strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(string(e.Output.Stderr)))
}

func (e *RunError) StderrContains(s string) bool {
	return strings.Contains(string(e.Output.Stderr), s)
}

// Run executes git with the given options and captures stdout/stderr.
func (r *Repo) Run(ctx context.Context, opts *RunOpts) (*Output, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, "git", opts.Args...)
	cmd.Dir = r.repoDir
	cmd.Env = append(os.Environ(), "IN_DIAMOND_CLI=1")
	cmd.Env = append(cmd.Env, opts.Env...)
	if opts.Stdin != nil {
		cmd.Stdin = strings.NewReader(string(opts.Stdin))
	}

	var stdout, stderr strings.Builder
	if opts.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}
	err := cmd.Run()

	out := &Output{Stdout: []byte(stdout.String()), Stderr: []byte(stderr.String())}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	log := r.log.WithField("duration", time.Since(start))
	if err != nil {
		log.Debugf("git %v failed: %v: %s", opts.Args, err, stderr.String())
		if opts.ExitError {
			return out, &RunError{Args: opts.Args, Output: out, ExitCode: out.ExitCode}
		}
	} else {
		log.Debugf("git %v", opts.Args)
	}
	return out, nil
}

// Git runs git and returns trimmed stdout, erroring on non-zero exit.
func (r *Repo) Git(ctx context.Context, args ...string) (string, error) {
	out, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

// StderrMatches reports whether err is a *RunError whose stderr contains target.
func StderrMatches(err error, target string) bool {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.StderrContains(target)
	}
	return false
}

// Origin returns the parsed URL and owner/repo slug of the configured remote.
type OriginInfo struct {
	URL      string
	RepoSlug string
}

func (r *Repo) Origin(ctx context.Context) (*OriginInfo, error) {
	remote, err := r.gitRepo.Remote(r.remote)
	if err != nil {
		return nil, errors.WrapIff(ErrRemoteNotFound, "remote %q: %v", r.remote, err)
	}
	cfg := remote.Config()
	if len(cfg.URLs) == 0 {
		return nil, errors.Wrap(ErrRemoteNotFound, "remote has no URLs")
	}
	raw := cfg.URLs[0]
	u, err := giturls.Parse(raw)
	if err != nil {
		return nil, errors.WrapIff(err, "failed to parse remote URL %q", raw)
	}
	slug := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".git")
	return &OriginInfo{URL: raw, RepoSlug: slug}, nil
}

// DefaultBranch resolves the remote's HEAD branch (e.g. "main").
func (r *Repo) DefaultBranch(ctx context.Context) (string, error) {
	ref, err := r.gitRepo.Reference(plumbing.NewRemoteHEADReferenceName(r.remote), false)
	if err != nil {
		out, gerr := r.Git(ctx, "rev-parse", "--abbrev-ref", r.remote+"/HEAD")
		if gerr != nil {
			return "", errors.WrapIff(err, "failed to determine remote HEAD for %q", r.remote)
		}
		return strings.TrimPrefix(out, r.remote+"/"), nil
	}
	return strings.TrimPrefix(ref.Target().String(), fmt.Sprintf("refs/remotes/%s/", r.remote)), nil
}

// RemoteTrackingBranch maps a local branch to its configured remote-tracking
// ref using the remote's fetch refspecs (mirrors how `git fetch` maps refs).
func (r *Repo) RemoteTrackingBranch(branch string) (string, bool) {
	remote, err := r.gitRepo.Remote(r.remote)
	if err != nil {
		return "", false
	}
	src := plumbing.NewBranchReferenceName(branch)
	for _, fetch := range remote.Config().Fetch {
		if fetch.Match(src) {
			dst := fetch.Dst(src)
			return dst.Short(), true
		}
	}
	return "", false
}
