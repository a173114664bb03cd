package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/orchestrator"
)

// newSplitCmd inserts a new branch at an existing commit in the current
// branch's history, splitting it into two: <new-branch> (parent..at] and
// the current branch ((at..HEAD]), with the current branch reparented onto
// the new one.
func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <commit> <new-branch-name>",
		Short: "split the current branch in two at a commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, newBranch := args[0], args[1]
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
			if repo.BranchExists(ctx, newBranch) {
				return errors.Errorf("branch %q already exists", newBranch)
			}
			commitSHA, err := repo.ResolveRef(ctx, at)
			if err != nil {
				return errors.Wrapf(err, "failed to resolve %q", at)
			}
			isAncestor, err := repo.IsAncestor(ctx, commitSHA, branch)
			if err != nil {
				return err
			}
			if !isAncestor {
				return errors.Errorf("%q is not an ancestor of %q", at, branch)
			}

			if err := repo.CreateBranch(ctx, newBranch, commitSHA); err != nil {
				return err
			}

			parent, hasParent, err := store.GetParent(ctx, branch)
			if err != nil {
				return err
			}
			if hasParent {
				if err := store.SetParent(ctx, newBranch, parent); err != nil {
					return err
				}
			}
			if err := store.SetParent(ctx, branch, newBranch); err != nil {
				return err
			}

			fmt.Printf("Split %q into %q (up to %s) and %q.\n", branch, newBranch, commitSHA[:8], branch)
			return runOrchestration(ctx, orch, func() (*orchestrator.Plan, error) {
				return orch.PlanRestack(ctx, orchestrator.RestackOnly, branch)
			})
		},
	}
}
