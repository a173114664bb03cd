package main

import (
	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/doctor"
	"github.com/diamond-stack/diamond/internal/orchestrator"
)

var restackFlags struct {
	All          bool
	Upstack      bool
	Downstack    bool
	Force        bool
	SkipApproved bool
}

func newRestackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restack [<branch-name>]",
		Short: "rebase stacked branches onto their recorded parents",
		Args:  cobra.MaximumNArgs(1),
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

			branch := ""
			if len(args) == 1 {
				branch = args[0]
			} else {
				branch, err = repo.CurrentBranchName(ctx)
				if err != nil {
					return errors.Wrap(err, "failed to determine current branch")
				}
			}

			scope := orchestrator.RestackOnly
			switch {
			case restackFlags.All:
				scope = orchestrator.RestackAll
			case restackFlags.Upstack:
				scope = orchestrator.RestackUpstack
			case restackFlags.Downstack:
				scope = orchestrator.RestackDownstack
			}

			if err := doctor.New(repo, store).RepairOrphans(ctx); err != nil {
				return err
			}

			return runOrchestration(ctx, orch, func() (*orchestrator.Plan, error) {
				plan, err := orch.PlanRestack(ctx, scope, branch)
				if err != nil {
					return nil, err
				}
				client, err := getForgeClient(ctx)
				if err != nil {
					return nil, err
				}
				if err := orch.ApplyApprovedPRGuard(ctx, client, plan, restackFlags.Force, restackFlags.SkipApproved); err != nil {
					return nil, err
				}
				return plan, nil
			})
		},
	}
	cmd.Flags().BoolVar(&restackFlags.All, "all", false, "restack every tracked branch")
	cmd.Flags().BoolVar(&restackFlags.Upstack, "upstack", false, "restack the branch and its descendants")
	cmd.Flags().BoolVar(&restackFlags.Downstack, "downstack", false, "restack the branch and its ancestors")
	cmd.Flags().BoolVar(&restackFlags.Force, "force", false, "restack even if a branch in scope has an approved pull request")
	cmd.Flags().BoolVar(&restackFlags.SkipApproved, "skip-approved", false, "drop branches with an approved pull request from the restack instead of failing")
	return cmd
}

func newContinueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "continue an in-progress operation after resolving conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, err := getOrchestrator()
			if err != nil {
				return err
			}
			result, err := orch.Continue(cmd.Context())
			return reportOrchestrationResult(result, err)
		},
	}
}

func newAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "abort an in-progress operation and restore every branch to its pre-operation state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := getOrchestrator()
			if err != nil {
				return err
			}
			repo, err := getRepo()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if repo.RebaseInProgress(ctx) {
				if err := repo.RebaseAbort(ctx); err != nil {
					return err
				}
			}
			return abortRestoreBackups(ctx, repo, store)
		},
	}
}
