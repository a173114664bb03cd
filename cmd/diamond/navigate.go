package main

import (
	"context"
	"fmt"
	"sort"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/refstore"
	"github.com/diamond-stack/diamond/internal/stackgraph"
)

var navFlags struct {
	NthChild int
}

type navResolver func(ctx context.Context, store *refstore.RefStore, current string) (string, error)

func navigate(cmd *cobra.Command, resolve navResolver) error {
	repo, err := getRepo()
	if err != nil {
		return err
	}
	store, err := getStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	current, err := repo.CurrentBranchName(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to determine current branch")
	}
	target, err := resolve(ctx, store, current)
	if err != nil {
		return err
	}
	if err := repo.CheckoutBranchSafe(ctx, target); err != nil {
		return err
	}
	fmt.Printf("Checked out %q.\n", target)
	return nil
}

func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "up",
		Aliases: []string{"u"},
		Short:   "check out a child of the current branch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, func(ctx context.Context, store *refstore.RefStore, current string) (string, error) {
				children, err := store.GetChildren(ctx, current)
				if err != nil {
					return "", err
				}
				if len(children) == 0 {
					return "", errors.Errorf("branch %q has no children", current)
				}
				sort.Strings(children)
				if navFlags.NthChild >= len(children) {
					return "", errors.Errorf("branch %q only has %d children", current, len(children))
				}
				return children[navFlags.NthChild], nil
			})
		},
	}
	cmd.Flags().IntVar(&navFlags.NthChild, "nth", 0, "which child to check out when a branch has several, 0-indexed")
	return cmd
}

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "down",
		Aliases: []string{"d"},
		Short:   "check out the parent of the current branch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, func(ctx context.Context, store *refstore.RefStore, current string) (string, error) {
				trunk, err := store.RequireTrunk(ctx)
				if err != nil {
					return "", err
				}
				if current == trunk {
					return "", errors.New("already at trunk")
				}
				parent, ok, err := store.GetParent(ctx, current)
				if err != nil {
					return "", err
				}
				if !ok {
					return trunk, nil
				}
				return parent, nil
			})
		},
	}
}

func newTopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "check out the topmost branch of the current stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, func(ctx context.Context, store *refstore.RefStore, current string) (string, error) {
				b := current
				for {
					children, err := store.GetChildren(ctx, b)
					if err != nil {
						return "", err
					}
					if len(children) == 0 {
						break
					}
					sort.Strings(children)
					b = children[0]
				}
				if b == current {
					return "", errors.Errorf("branch %q has no children", current)
				}
				return b, nil
			})
		},
	}
}

func newBottomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bottom",
		Short: "check out the branch directly above trunk in the current stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, func(ctx context.Context, store *refstore.RefStore, current string) (string, error) {
				trunk, err := store.RequireTrunk(ctx)
				if err != nil {
					return "", err
				}
				ancestors, err := stackgraph.Ancestors(ctx, store.GetParent, trunk, current)
				if err != nil {
					return "", err
				}
				if len(ancestors) == 0 {
					return "", errors.New("already at the bottom of the stack")
				}
				return ancestors[0], nil
			})
		},
	}
}
