package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
)

var createFlags struct {
	Parent string
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create <branch-name>",
		Aliases: []string{"c", "new"},
		Short:   "create a new branch stacked on the current branch",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := args[0]
			repo, err := getRepo()
			if err != nil {
				return err
			}
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			parent := createFlags.Parent
			if parent == "" {
				parent, err = repo.CurrentBranchName(ctx)
				if err != nil {
					return errors.Wrap(err, "failed to determine current branch")
				}
			}
			if !repo.BranchExists(ctx, parent) {
				return errors.Errorf("parent branch %q does not exist", parent)
			}
			if repo.BranchExists(ctx, branchName) {
				return errors.Errorf("branch %q already exists", branchName)
			}

			if rootFlags.DryRun {
				fmt.Printf("would create branch %q on top of %q\n", branchName, parent)
				return nil
			}

			if err := repo.CreateBranch(ctx, branchName, parent); err != nil {
				return err
			}
			if err := repo.CheckoutBranchSafe(ctx, branchName); err != nil {
				return err
			}
			if err := store.SetParent(ctx, branchName, parent); err != nil {
				return err
			}

			fmt.Printf("Created and checked out branch %q on top of %q.\n", branchName, parent)
			return nil
		},
	}
	cmd.Flags().StringVar(&createFlags.Parent, "parent", "", "the parent branch (defaults to the current branch)")
	return cmd
}

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "checkout <branch-name>",
		Aliases:           []string{"co", "switch", "sw"},
		Short:             "check out a tracked branch",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: trackedBranchCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepo()
			if err != nil {
				return err
			}
			if !repo.BranchExists(cmd.Context(), args[0]) {
				return errors.Errorf("branch %q does not exist", args[0])
			}
			return repo.CheckoutBranchSafe(cmd.Context(), args[0])
		},
	}
}

func trackedBranchCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := getStore()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	branches, err := store.TrackedBranches(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return branches, cobra.ShellCompDirectiveNoFileComp
}
