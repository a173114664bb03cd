package main

import (
	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/orchestrator"
)

func newMoveCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "move <branch-name>",
		Short: "move a branch and its descendants onto a new parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, err := getOrchestrator()
			if err != nil {
				return err
			}
			repo, err := getRepo()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if parent == "" {
				return errors.New("--onto is required")
			}
			if !repo.BranchExists(ctx, parent) {
				return errors.Errorf("parent branch %q does not exist", parent)
			}

			return runOrchestration(ctx, orch, func() (*orchestrator.Plan, error) {
				return orch.PlanMove(ctx, args[0], parent)
			})
		},
	}
	cmd.Flags().StringVar(&parent, "onto", "", "the new parent branch")
	return cmd
}
