package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [<branch-name>]",
		Short: "print stack metadata for a branch",
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

			trunk, err := store.RequireTrunk(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("branch: %s\n", branch)
			if branch == trunk {
				fmt.Println("trunk: yes")
				return nil
			}
			if !store.IsTracked(ctx, branch) {
				fmt.Println("tracked: no")
				return nil
			}
			parent, _, err := store.GetParent(ctx, branch)
			if err != nil {
				return err
			}
			fmt.Printf("parent: %s\n", parent)
			children, err := store.GetChildren(ctx, branch)
			if err != nil {
				return err
			}
			if len(children) == 0 {
				fmt.Println("children: none")
			} else {
				fmt.Printf("children: %v\n", children)
			}
			fmt.Printf("frozen: %v\n", store.IsFrozen(ctx, branch))
			return nil
		},
	}
}

func newParentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parent [<branch-name>]",
		Short: "print a branch's parent",
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
			parent, ok, err := store.GetParent(ctx, branch)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("(none)")
				return nil
			}
			fmt.Println(parent)
			return nil
		},
	}
}

func newChildrenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "children [<branch-name>]",
		Short: "print a branch's children",
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
			children, err := store.GetChildren(cmd.Context(), branch)
			if err != nil {
				return err
			}
			if len(children) == 0 {
				fmt.Println("(none)")
				return nil
			}
			for _, c := range children {
				fmt.Println(c)
			}
			return nil
		},
	}
}
