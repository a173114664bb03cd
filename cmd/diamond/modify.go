package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/orchestrator"
)

var modifyFlags struct {
	Message string
	NoEdit  bool
	All     bool
}

func newModifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modify",
		Aliases: []string{"amend"},
		Short:   "amend the current branch's tip commit and restack its descendants",
		Args:    cobra.NoArgs,
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

			commitArgs := []string{"commit", "--amend"}
			if modifyFlags.All {
				commitArgs = append(commitArgs, "--all")
			}
			if modifyFlags.NoEdit {
				commitArgs = append(commitArgs, "--no-edit")
			}
			if modifyFlags.Message != "" {
				commitArgs = append(commitArgs, "--message", modifyFlags.Message)
			}
			if _, err := repo.Run(ctx, &gitshell.RunOpts{Args: commitArgs, ExitError: true, Interactive: true}); err != nil {
				return err
			}

			branch, err := repo.CurrentBranchName(ctx)
			if err != nil {
				return err
			}

			return runOrchestration(ctx, orch, func() (*orchestrator.Plan, error) {
				return orch.PlanRestack(ctx, orchestrator.RestackUpstack, branch)
			})
		},
	}
	cmd.Flags().StringVarP(&modifyFlags.Message, "message", "m", "", "the commit message")
	cmd.Flags().BoolVar(&modifyFlags.NoEdit, "no-edit", false, "amend without changing the commit message")
	cmd.Flags().BoolVarP(&modifyFlags.All, "all", "a", false, "stage all modified tracked files first")
	cmd.MarkFlagsMutuallyExclusive("message", "no-edit")
	return cmd
}

func newAbsorbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "absorb",
		Short: "stage tracked changes and run an interactive autosquash rebase back to trunk's merge base; creates no fixup commits and does not restack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := getStore()
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
				return err
			}
			trunk, err := store.RequireTrunk(ctx)
			if err != nil {
				return err
			}

			mergeBase, err := repo.MergeBase(ctx, branch, trunk)
			if err != nil {
				return err
			}

			if _, err := repo.Run(ctx, &gitshell.RunOpts{
				Args:      []string{"add", "--update"},
				ExitError: true,
			}); err != nil {
				return err
			}
			if _, err := repo.Run(ctx, &gitshell.RunOpts{
				Args:        []string{"rebase", "--interactive", "--autosquash", "--autostash", mergeBase},
				ExitError:   true,
				Interactive: true,
			}); err != nil {
				return err
			}

			fmt.Println("Absorbed working-tree changes; run `diamond restack --upstack` if descendants need rebasing.")
			return nil
		},
	}
}
