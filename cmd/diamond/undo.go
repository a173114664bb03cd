package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/diamond-stack/diamond/internal/oplog"
)

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "restore the branches touched by the most recent sync, restack, move, or insert",
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

			log := oplog.Open(repo)
			entries, err := log.All()
			if err != nil {
				return err
			}
			candidate, ok := oplog.NextUndo(entries)
			if !ok {
				return errors.New("nothing to undo")
			}

			for _, branch := range candidate.Branches {
				backups, err := store.ListBackups(ctx, branch)
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					continue
				}
				if err := store.RestoreBackup(ctx, branch, backups[0]); err != nil {
					return err
				}
				if err := log.Append(ctx, oplog.Entry{Operation: oplog.BackupRestored, Branch: branch, BackupRef: backups[0]}); err != nil {
					return err
				}
			}

			fmt.Printf("Restored %d branch(es) to their state before the last %s.\n", len(candidate.Branches), candidate.Started.Operation)
			return nil
		},
	}
}
