package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
)

var trackFlags struct {
	Parent string
}

func newTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track [<branch-name>]",
		Short: "start tracking an existing git branch in the stack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch, err := currentOrNamedBranch(cmd, args)
			if err != nil {
				return err
			}
			repo, err := getRepo()
			if err != nil {
				return err
			}
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if !repo.BranchExists(ctx, branch) {
				return errors.Errorf("branch %q does not exist", branch)
			}
			if store.IsTracked(ctx, branch) {
				return errors.Errorf("branch %q is already tracked", branch)
			}

			parent := trackFlags.Parent
			if parent == "" {
				parent, err = store.RequireTrunk(ctx)
				if err != nil {
					return err
				}
			} else if !store.IsTracked(ctx, parent) {
				trunk, err := store.RequireTrunk(ctx)
				if err != nil {
					return err
				}
				if parent != trunk {
					return errors.Errorf("parent branch %q is not tracked", parent)
				}
			}

			if err := store.SetParent(ctx, branch, parent); err != nil {
				return err
			}
			fmt.Printf("Tracking %q as a child of %q.\n", branch, parent)
			return nil
		},
	}
	cmd.Flags().StringVar(&trackFlags.Parent, "parent", "", "parent branch (defaults to trunk)")
	return cmd
}

func newUntrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrack [<branch-name>]",
		Short: "stop tracking a branch without deleting it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch, err := currentOrNamedBranch(cmd, args)
			if err != nil {
				return err
			}
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if !store.IsTracked(ctx, branch) {
				return errors.Errorf("branch %q is not tracked", branch)
			}
			if err := store.RemoveBranchReparent(ctx, branch); err != nil {
				return err
			}
			fmt.Printf("Stopped tracking %q.\n", branch)
			return nil
		},
	}
}
