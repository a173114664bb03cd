package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/stackgraph"
)

func newLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "log",
		Aliases: []string{"l", "tree"},
		Short:   "show the branch stack as a tree",
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

			trunk, err := store.RequireTrunk(ctx)
			if err != nil {
				return err
			}
			current, err := repo.CurrentBranchName(ctx)
			if err != nil {
				current = ""
			}

			branches, err := stackgraph.CollectBranchesDFS(ctx, store.GetChildren, []string{trunk})
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			for _, b := range branches {
				label := b
				if b == current {
					label = bold.Sprint(b) + color.GreenString(" (current)")
				}
				if b == trunk {
					fmt.Println(label)
					continue
				}
				prefix, err := stackgraph.ComputeTreePrefix(ctx, store.GetParent, store.GetChildren, trunk, b)
				if err != nil {
					return err
				}
				fmt.Println(prefix + label)
			}
			return nil
		},
	}
}
