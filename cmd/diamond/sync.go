package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/doctor"
	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/orchestrator"
	"github.com/diamond-stack/diamond/internal/refstore"
)

var syncFlags struct {
	Force        bool
	SkipApproved bool
	NoFetch      bool
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "fetch trunk and restack every tracked branch onto it",
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

			trunk, err := store.RequireTrunk(ctx)
			if err != nil {
				return err
			}
			if !syncFlags.NoFetch {
				if err := repo.FetchOrigin(ctx); err != nil {
					return err
				}
				if err := repo.FastForwardBranch(ctx, trunk); err != nil {
					return err
				}
			}

			d := doctor.New(repo, store)
			if err := d.RepairOrphans(ctx); err != nil {
				return err
			}

			if client, err := getForgeClient(ctx); err != nil {
				return err
			} else if client != nil {
				if err := pruneMergedBranches(ctx, client, store, repo, trunk); err != nil {
					return err
				}
			}

			return runOrchestration(ctx, orch, func() (*orchestrator.Plan, error) {
				plan, err := orch.PlanSync(ctx)
				if err != nil {
					return nil, err
				}
				client, err := getForgeClient(ctx)
				if err != nil {
					return nil, err
				}
				if err := orch.ApplyApprovedPRGuard(ctx, client, plan, syncFlags.Force, syncFlags.SkipApproved); err != nil {
					return nil, err
				}
				return plan, nil
			})
		},
	}
	cmd.Flags().BoolVar(&syncFlags.Force, "force", false, "sync even if a branch has an approved pull request")
	cmd.Flags().BoolVar(&syncFlags.SkipApproved, "skip-approved", false, "drop branches with an approved pull request from the sync instead of failing")
	cmd.Flags().BoolVar(&syncFlags.NoFetch, "no-fetch", false, "skip fetching and fast-forwarding trunk")
	return cmd
}

// pruneMergedBranches deletes and untracks every tracked branch whose PR the
// forge reports merged, so sync doesn't try to rebase a dead branch.
func pruneMergedBranches(ctx context.Context, client forge.Client, store *refstore.RefStore, repo *gitshell.Repo, trunk string) error {
	branches, err := store.TrackedBranches(ctx)
	if err != nil {
		return err
	}
	for _, b := range branches {
		merged, err := client.IsBranchMerged(ctx, b, trunk)
		if err != nil {
			logrus.WithError(err).WithField("branch", b).Debug("could not check merge status")
			continue
		}
		if !merged {
			continue
		}
		children, err := store.GetChildren(ctx, b)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := store.SetParent(ctx, c, trunk); err != nil {
				return err
			}
		}
		if err := store.RemoveParent(ctx, b); err != nil {
			return err
		}
		if repo.BranchExists(ctx, b) {
			current, _ := repo.CurrentBranchName(ctx)
			if current == b {
				if err := repo.CheckoutBranchSafe(ctx, trunk); err != nil {
					return err
				}
			}
			if err := repo.DeleteBranch(ctx, b); err != nil {
				logrus.WithError(err).WithField("branch", b).Warn("could not delete merged branch")
			}
		}
		fmt.Printf("Deleted merged branch %q.\n", b)
	}
	return nil
}
