package gitshell

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// WorktreeState describes what a worktree is doing right now.
type WorktreeState string

const (
	WorktreeClean         WorktreeState = "clean"
	WorktreeDirty         WorktreeState = "dirty"
	WorktreeRebasing      WorktreeState = "rebasing"
	WorktreeMerging       WorktreeState = "merging"
	WorktreeCherryPicking WorktreeState = "cherry-picking"
)

// WorktreeInfo describes one worktree attached to the repository.
type WorktreeInfo struct {
	Path   string
	Branch string // "" if detached
	State  WorktreeState
	// Orphan is true if Branch no longer exists as a local branch (the
	// worktree's administrative files reference a branch that was deleted
	// out from under it).
	Orphan bool
}

// ListWorktrees enumerates every worktree attached to this repository,
// parsing `git worktree list --porcelain`.
func (r *Repo) ListWorktrees(ctx context.Context) ([]WorktreeInfo, error) {
	out, err := r.Git(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var worktrees []WorktreeInfo
	var cur *WorktreeInfo
	flush := func() {
		if cur != nil {
			worktrees = append(worktrees, *cur)
			cur = nil
		}
	}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur = &WorktreeInfo{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			if cur != nil {
				cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
			}
		case line == "detached":
			// leave Branch empty
		}
	}
	flush()

	for i := range worktrees {
		wt := &worktrees[i]
		wt.State = r.worktreeOperationState(wt.Path)
		if wt.State == WorktreeClean {
			if dirty, _ := r.isWorktreeDirty(ctx, wt.Path); dirty {
				wt.State = WorktreeDirty
			}
		}
		if wt.Branch != "" && !r.BranchExists(ctx, wt.Branch) {
			wt.Orphan = true
		}
	}
	return worktrees, nil
}

func (r *Repo) worktreeOperationState(worktreeDir string) WorktreeState {
	adminDir := worktreeDir
	if st, err := os.Stat(filepath.Join(worktreeDir, ".git")); err == nil && !st.IsDir() {
		// linked worktree: .git is a file pointing at the admin directory
		if data, err := os.ReadFile(filepath.Join(worktreeDir, ".git")); err == nil {
			if rest, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir: "); ok {
				adminDir = rest
			}
		}
	} else {
		adminDir = filepath.Join(worktreeDir, ".git")
	}
	for name, state := range map[string]WorktreeState{
		"rebase-merge": WorktreeRebasing,
		"rebase-apply": WorktreeRebasing,
		"MERGE_HEAD":   WorktreeMerging,
		"CHERRY_PICK_HEAD": WorktreeCherryPicking,
	} {
		if _, err := os.Stat(filepath.Join(adminDir, name)); err == nil {
			return state
		}
	}
	return WorktreeClean
}

func (r *Repo) isWorktreeDirty(ctx context.Context, dir string) (bool, error) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"-C", dir, "status", "--porcelain"}})
	if err != nil {
		return false, err
	}
	return len(out.Lines()) > 0, nil
}

// WorktreeForBranch returns the first worktree (the main one included) that
// has the given branch checked out, if any.
func (r *Repo) WorktreeForBranch(ctx context.Context, branch string) (*WorktreeInfo, error) {
	worktrees, err := r.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	for i := range worktrees {
		if worktrees[i].Branch == branch {
			return &worktrees[i], nil
		}
	}
	return nil, nil
}
