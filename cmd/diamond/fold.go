package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/orchestrator"
)

// newFoldCmd merges the current branch's commits into its parent and
// removes the current branch, so its children become children of the
// parent directly.
func newFoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fold",
		Short: "fold the current branch's commits into its parent branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, store, err := getOrchestrator()
			if err != nil {
				return err
			}
			repo, err := getRepo()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			branch, err := repo.CurrentBranchName(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to determine current branch")
			}
			parent, hasParent, err := store.GetParent(ctx, branch)
			if err != nil {
				return err
			}
			if !hasParent {
				return errors.Errorf("branch %q has no parent to fold into", branch)
			}

			children, err := store.GetChildren(ctx, branch)
			if err != nil {
				return err
			}

			if err := repo.CheckoutBranchSafe(ctx, parent); err != nil {
				return err
			}
			if _, err := repo.Run(ctx, &gitshell.RunOpts{
				Args:      []string{"merge", "--ff-only", branch},
				ExitError: true,
			}); err != nil {
				return errors.Wrap(err, "parent branch has diverged; restack before folding")
			}

			for _, c := range children {
				if err := store.SetParent(ctx, c, parent); err != nil {
					return err
				}
			}
			if err := store.RemoveParent(ctx, branch); err != nil {
				return err
			}
			if err := repo.DeleteBranch(ctx, branch); err != nil {
				return err
			}

			fmt.Printf("Folded %q into %q.\n", branch, parent)
			return runOrchestration(ctx, orch, func() (*orchestrator.Plan, error) {
				return orch.PlanRestack(ctx, orchestrator.RestackUpstack, parent)
			})
		},
	}
}
