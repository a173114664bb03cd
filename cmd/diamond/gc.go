package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/doctor"
)

var gcFlags struct {
	MaxAge time.Duration
	Keep   int
}

func newGCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "delete old backup refs",
		Args:  cobra.NoArgs,
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

			d := doctor.New(repo, store)
			deleted, err := d.GC(ctx, doctor.GCOptions{MaxAge: gcFlags.MaxAge, Keep: gcFlags.Keep})
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d backup ref(s).\n", len(deleted))
			return nil
		},
	}
	cmd.Flags().DurationVar(&gcFlags.MaxAge, "max-age", 0, "delete backups older than this (default 30 days)")
	cmd.Flags().IntVar(&gcFlags.Keep, "keep", 0, "keep at most this many backups per branch (default 10)")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "delete tracked branches already merged into trunk",
		Args:  cobra.NoArgs,
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

			trunk, err := store.RequireTrunk(ctx)
			if err != nil {
				return err
			}
			branches, err := store.TrackedBranches(ctx)
			if err != nil {
				return err
			}

			deleted := 0
			for _, b := range branches {
				if b == trunk || !repo.BranchExists(ctx, b) {
					continue
				}
				merged, err := repo.IsBranchMerged(ctx, b, trunk)
				if err != nil {
					return err
				}
				if !merged {
					continue
				}
				if err := store.RemoveBranchReparent(ctx, b); err != nil {
					return err
				}
				current, _ := repo.CurrentBranchName(ctx)
				if current == b {
					if err := repo.CheckoutBranchSafe(ctx, trunk); err != nil {
						return err
					}
				}
				if err := repo.DeleteBranch(ctx, b); err != nil {
					return err
				}
				fmt.Printf("Deleted merged branch %q.\n", b)
				deleted++
			}
			if deleted == 0 {
				fmt.Println("No merged branches to clean up.")
			}
			return nil
		},
	}
}
