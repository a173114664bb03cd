package gitshell

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// RebaseStatus is the outcome of a rebase attempt. Conflicts are a value,
// never an error: the caller decides what to do next.
type RebaseStatus string

const (
	RebaseSuccess   RebaseStatus = "success"
	RebaseConflicts RebaseStatus = "conflicts"
)

type RebaseResult struct {
	Status          RebaseStatus
	ConflictingPaths []string
	ErrorHeadline   string
}

// RebaseOnto rebases branch onto newBase (`git rebase --onto newBase newBase branch`
// is not what we want here; this is a plain `git rebase newBase branch`,
// replaying every commit unique to branch relative to its current upstream).
func (r *Repo) RebaseOnto(ctx context.Context, branch, newBase string) (*RebaseResult, error) {
	return r.runRebase(ctx, []string{"rebase", newBase, branch})
}

// RebaseOntoFrom replays only the commits unique to branch relative to
// oldBase, onto newBase. This is the primitive used for move/insert, and for
// the first branch rebased in any operation plan.
func (r *Repo) RebaseOntoFrom(ctx context.Context, branch, newBase, oldBase string) (*RebaseResult, error) {
	return r.runRebase(ctx, []string{"rebase", "--onto", newBase, oldBase, branch})
}

// RebaseForkPoint rebases branch onto the new tip of onto using the reflog to
// find the true prior fork point (`git merge-base --fork-point`), so that an
// amended/rewritten parent doesn't cause spurious conflicts from commits
// that are semantically already applied.
func (r *Repo) RebaseForkPoint(ctx context.Context, branch, onto string) (*RebaseResult, error) {
	forkPoint, err := r.Git(ctx, "merge-base", "--fork-point", onto, branch)
	if err != nil || forkPoint == "" {
		// No fork point recorded (e.g. reflog expired); fall back to the
		// merge-base between the branch and its new parent.
		forkPoint, err = r.MergeBase(ctx, branch, onto)
		if err != nil {
			return nil, err
		}
	}
	return r.runRebase(ctx, []string{"rebase", "--onto", onto, forkPoint, branch})
}

func (r *Repo) runRebase(ctx context.Context, args []string) (*RebaseResult, error) {
	out, err := r.Run(ctx, &RunOpts{Args: args, Env: []string{"GIT_EDITOR=true"}})
	if err != nil {
		return nil, err
	}
	if out.ExitCode == 0 {
		return &RebaseResult{Status: RebaseSuccess}, nil
	}
	paths, _ := r.conflictingPaths(ctx)
	return &RebaseResult{
		Status:           RebaseConflicts,
		ConflictingPaths: paths,
		ErrorHeadline:    strings.TrimSpace(string(out.Stderr)),
	}, nil
}

func (r *Repo) conflictingPaths(ctx context.Context) ([]string, error) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"diff", "--name-only", "--diff-filter=U"}})
	if err != nil {
		return nil, err
	}
	return out.Lines(), nil
}

// RebaseInProgress reports whether the VCS itself believes a rebase is
// currently in progress, independent of Diamond's own OperationState.
func (r *Repo) RebaseInProgress(ctx context.Context) bool {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		if st, err := os.Stat(filepath.Join(r.GitDir(), name)); err == nil && st.IsDir() {
			return true
		}
	}
	return false
}

// RebaseContinue continues an in-progress rebase.
func (r *Repo) RebaseContinue(ctx context.Context) (*RebaseResult, error) {
	return r.runRebase(ctx, []string{"rebase", "--continue"})
}

// RebaseAbort aborts an in-progress rebase. It is a no-op if none is in progress.
func (r *Repo) RebaseAbort(ctx context.Context) error {
	if !r.RebaseInProgress(ctx) {
		return nil
	}
	_, err := r.Run(ctx, &RunOpts{Args: []string{"rebase", "--abort"}, ExitError: true})
	return err
}
