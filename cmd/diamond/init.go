package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/refstore"
)

var initFlags struct {
	Trunk string
	Force bool
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the repository for use with diamond",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepo()
			if err != nil {
				return err
			}
			store := refstore.New(repo)

			if _, ok, err := store.GetTrunk(cmd.Context()); err != nil {
				return err
			} else if ok && !initFlags.Force {
				return errors.New("repository is already initialized; pass --force to reinitialize")
			}

			trunk := initFlags.Trunk
			if trunk == "" {
				trunk, err = repo.DefaultBranch(cmd.Context())
				if err != nil {
					return errors.Wrap(err, "failed to determine default branch; pass --trunk explicitly")
				}
			}
			if !repo.BranchExists(cmd.Context(), trunk) {
				return errors.Errorf("trunk branch %q does not exist", trunk)
			}

			if err := store.SetTrunk(cmd.Context(), trunk); err != nil {
				return err
			}
			if err := repo.EnsureDiamondRefspec(cmd.Context()); err != nil {
				return errors.Wrap(err, "failed to add the refs/diamond/* refspec")
			}

			fmt.Printf("Initialized diamond with trunk %q.\n", trunk)
			return nil
		},
	}
	cmd.Flags().StringVar(&initFlags.Trunk, "trunk", "", "the trunk branch (defaults to the remote's default branch)")
	cmd.Flags().BoolVar(&initFlags.Force, "force", false, "reinitialize even if already initialized")
	return cmd
}
