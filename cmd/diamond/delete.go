package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
)

var deleteFlags struct {
	Force bool
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <branch-name>",
		Aliases: []string{"rm"},
		Short:   "delete a branch and reparent its children onto its former parent",
		Args:    cobra.ExactArgs(1),
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
			if branch == trunk {
				return errors.New("cannot delete trunk")
			}
			if !deleteFlags.Force {
				merged, err := repo.IsBranchMerged(ctx, branch, trunk)
				if err != nil {
					return err
				}
				if !merged {
					return errors.Errorf("branch %q is not merged into %q; pass --force to delete anyway", branch, trunk)
				}
			}

			if err := store.RemoveBranchReparent(ctx, branch); err != nil {
				return err
			}

			current, err := repo.CurrentBranchName(ctx)
			if err == nil && current == branch {
				if err := repo.CheckoutBranchSafe(ctx, trunk); err != nil {
					return err
				}
			}
			if repo.BranchExists(ctx, branch) {
				if err := repo.DeleteBranch(ctx, branch); err != nil {
					return err
				}
			}

			fmt.Printf("Deleted branch %q.\n", branch)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&deleteFlags.Force, "force", "f", false, "delete even if the branch isn't merged into trunk")
	return cmd
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <new-name>",
		Short: "rename the current branch, preserving its place in the stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newName := args[0]
			repo, err := getRepo()
			if err != nil {
				return err
			}
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			oldName, err := repo.CurrentBranchName(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to determine current branch")
			}
			if repo.BranchExists(ctx, newName) {
				return errors.Errorf("branch %q already exists", newName)
			}

			parent, hasParent, err := store.GetParent(ctx, oldName)
			if err != nil {
				return err
			}
			children, err := store.GetChildren(ctx, oldName)
			if err != nil {
				return err
			}

			if err := repo.RenameBranch(ctx, oldName, newName); err != nil {
				return err
			}
			if hasParent {
				if err := store.SetParent(ctx, newName, parent); err != nil {
					return err
				}
			}
			for _, c := range children {
				if err := store.SetParent(ctx, c, newName); err != nil {
					return err
				}
			}
			if hasParent {
				if err := store.RemoveParent(ctx, oldName); err != nil {
					return err
				}
			}

			fmt.Printf("Renamed %q to %q.\n", oldName, newName)
			return nil
		},
	}
}
