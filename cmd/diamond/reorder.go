package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/gitshell"
)

// newReorderCmd swaps a branch with its parent in the stack: the branch's
// commits move directly onto the old grandparent, and the parent's commits
// move on top of the branch. Descendants are left for `restack --upstack`.
func newReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <branch-name>",
		Short: "swap a branch with its parent in the stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch := args[0]
			repo, err := getRepo()
			if err != nil {
				return err
			}
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			trunk, err := store.RequireTrunk(ctx)
			if err != nil {
				return err
			}
			parent, ok, err := store.GetParent(ctx, branch)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("branch %q has no parent to swap with", branch)
			}
			if parent == trunk {
				return errors.Errorf("branch %q's parent is trunk; trunk can't be reordered", branch)
			}
			grandparent, hasGrandparent, err := store.GetParent(ctx, parent)
			if err != nil {
				return err
			}
			if !hasGrandparent {
				grandparent = trunk
			}

			firstResult, err := repo.RebaseOntoFrom(ctx, branch, grandparent, parent)
			if err != nil {
				return err
			}
			if firstResult.Status == gitshell.RebaseConflicts {
				return errors.Errorf("conflict rebasing %q onto %q; resolve with `git rebase --continue` then re-run `diamond reorder`", branch, grandparent)
			}
			branchTip, err := repo.BranchSHA(ctx, branch)
			if err != nil {
				return err
			}
			result, err := repo.RebaseOntoFrom(ctx, parent, branchTip, grandparent)
			if err != nil {
				return err
			}
			if result.Status == gitshell.RebaseConflicts {
				return errors.Errorf("conflict rebasing %q onto %q; resolve with `git rebase --continue` then re-run `diamond reorder`", parent, branch)
			}

			if err := store.SetParent(ctx, branch, grandparent); err != nil {
				return err
			}
			if err := store.SetParent(ctx, parent, branch); err != nil {
				return err
			}

			fmt.Printf("Swapped %q and %q; run `diamond restack --upstack` from %q to rebase any remaining descendants.\n", branch, parent, branch)
			return nil
		},
	}
}
