package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/orchestrator"
)

func newSquashCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "squash",
		Short: "squash the current branch's commits into a single commit, then restack",
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
			trunk, err := store.RequireTrunk(ctx)
			if err != nil {
				return err
			}
			parent, hasParent, err := store.GetParent(ctx, branch)
			if err != nil {
				return err
			}
			if !hasParent {
				parent = trunk
			}

			base, err := repo.MergeBase(ctx, branch, parent)
			if err != nil {
				return err
			}
			if _, err := repo.Run(ctx, &gitshell.RunOpts{Args: []string{"reset", "--soft", base}, ExitError: true}); err != nil {
				return err
			}
			commitArgs := []string{"commit"}
			if message != "" {
				commitArgs = append(commitArgs, "--message", message)
			}
			if _, err := repo.Run(ctx, &gitshell.RunOpts{Args: commitArgs, ExitError: true, Interactive: true}); err != nil {
				return err
			}

			fmt.Println("Squashed commits.")
			return runOrchestration(ctx, orch, func() (*orchestrator.Plan, error) {
				return orch.PlanRestack(ctx, orchestrator.RestackUpstack, branch)
			})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "the commit message for the squashed commit")
	return cmd
}
