package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
)

func newFreezeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "freeze [<branch-name>]",
		Short: "set a branch's freeze marker (shown by info; sync and restack do not consult it)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setFrozen(cmd, args, true)
		},
	}
}

func newUnfreezeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfreeze [<branch-name>]",
		Short: "clear a branch's freeze marker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setFrozen(cmd, args, false)
		},
	}
}

func setFrozen(cmd *cobra.Command, args []string, frozen bool) error {
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
	if err := store.SetFrozen(ctx, branch, frozen); err != nil {
		return err
	}
	verb := "Froze"
	if !frozen {
		verb = "Unfroze"
	}
	fmt.Printf("%s %q.\n", verb, branch)
	return nil
}

func newPopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pop",
		Short: "list frozen branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := getStore()
			if err != nil {
				return err
			}
			frozen, err := store.ListFrozenBranches(cmd.Context())
			if err != nil {
				return err
			}
			if len(frozen) == 0 {
				fmt.Println("No frozen branches.")
				return nil
			}
			for _, b := range frozen {
				fmt.Println(b)
			}
			return nil
		},
	}
}
