package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
)

func newTrunkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trunk [<branch-name>]",
		Short: "print or change the repository's trunk branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepo()
			if err != nil {
				return err
			}
			store, err := getStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 0 {
				trunk, err := store.RequireTrunk(ctx)
				if err != nil {
					return err
				}
				fmt.Println(trunk)
				return nil
			}

			name := args[0]
			if !repo.BranchExists(ctx, name) {
				return errors.Errorf("branch %q does not exist", name)
			}
			if err := store.SetTrunk(ctx, name); err != nil {
				return err
			}
			fmt.Printf("Trunk set to %q.\n", name)
			return nil
		},
	}
}
