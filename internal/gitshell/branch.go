package gitshell

import (
	"context"
	"strings"

	"emperror.dev/errors"
)

// BranchExists reports whether a local branch with the given name exists.
func (r *Repo) BranchExists(ctx context.Context, name string) bool {
	_, err := r.Git(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// CreateBranch creates a new branch pointing at startPoint (defaults to HEAD).
func (r *Repo) CreateBranch(ctx context.Context, name, startPoint string) error {
	args := []string{"branch", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	return err
}

// DeleteBranch force-deletes a local branch. Deleting a branch that does not
// exist is not an error.
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	if !r.BranchExists(ctx, name) {
		return nil
	}
	_, err := r.Run(ctx, &RunOpts{Args: []string{"branch", "-D", name}, ExitError: true})
	return err
}

// RenameBranch renames a local branch.
func (r *Repo) RenameBranch(ctx context.Context, oldName, newName string) error {
	_, err := r.Run(ctx, &RunOpts{Args: []string{"branch", "-m", oldName, newName}, ExitError: true})
	return err
}

// CheckoutBranchSafe checks out a branch, failing if the worktree is dirty.
func (r *Repo) CheckoutBranchSafe(ctx context.Context, name string) error {
	st, err := r.Status(ctx)
	if err != nil {
		return err
	}
	if !st.IsCleanIgnoringUntracked() {
		return ErrWorktreeDirty
	}
	_, err = r.Run(ctx, &RunOpts{Args: []string{"checkout", name}, ExitError: true})
	return err
}

// CheckoutBranchWorktreeSafe checks out a branch, carrying working-tree
// changes along where possible (`git checkout` without `--force`, allowing
// git's own merge-on-checkout behavior).
func (r *Repo) CheckoutBranchWorktreeSafe(ctx context.Context, name string) error {
	_, err := r.Run(ctx, &RunOpts{Args: []string{"checkout", name}, ExitError: true})
	return err
}

var ErrWorktreeDirty = errors.Sentinel("worktree has staged or modified tracked files")

// CurrentBranchName returns the short name of HEAD, or "" if detached.
func (r *Repo) CurrentBranchName(ctx context.Context) (string, error) {
	out, err := r.Git(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return out, nil
}

// BranchSHA returns the commit SHA a local branch currently points at.
func (r *Repo) BranchSHA(ctx context.Context, name string) (string, error) {
	return r.ResolveRef(ctx, "refs/heads/"+name)
}

// ResolveRef resolves any revision expression to a full SHA.
func (r *Repo) ResolveRef(ctx context.Context, rev string) (string, error) {
	out, err := r.Git(ctx, "rev-parse", rev)
	if err != nil {
		return "", errors.WrapIff(err, "failed to resolve %q", rev)
	}
	return out, nil
}

// IsAncestor reports whether ancestor is an ancestor of (or equal to) descendant.
func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"merge-base", "--is-ancestor", ancestor, descendant}})
	if err != nil {
		return false, err
	}
	if out.ExitCode != 0 && out.ExitCode != 1 {
		return false, errors.Errorf("unexpected exit code %d from merge-base --is-ancestor", out.ExitCode)
	}
	return out.ExitCode == 0, nil
}

// IsBranchBasedOn reports whether branch's history contains base as an ancestor.
func (r *Repo) IsBranchBasedOn(ctx context.Context, branch, base string) (bool, error) {
	return r.IsAncestor(ctx, base, branch)
}

// IsBranchMerged reports whether branch is fully merged into into.
func (r *Repo) IsBranchMerged(ctx context.Context, branch, into string) (bool, error) {
	return r.IsAncestor(ctx, branch, into)
}

// MergeBase returns the merge base of the given revisions.
func (r *Repo) MergeBase(ctx context.Context, revs ...string) (string, error) {
	args := append([]string{"merge-base"}, revs...)
	out, err := r.Git(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
