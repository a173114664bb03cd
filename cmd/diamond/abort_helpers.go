package main

import (
	"context"
	"fmt"

	"emperror.dev/errors"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/oplog"
	"github.com/diamond-stack/diamond/internal/opstate"
	"github.com/diamond-stack/diamond/internal/refstore"
)

// abortRestoreBackups restores every branch touched by the in-progress
// operation to the backup ref captured before it started, then clears the
// checkpoint. A branch that was never reached yet (its tip is unchanged)
// still gets restored; the backup ref is identical to its current tip, so
// this is a no-op write.
func abortRestoreBackups(ctx context.Context, repo *gitshell.Repo, store *refstore.RefStore) error {
	state, err := opstate.Load(repo.InternalDir())
	if err != nil {
		return err
	}
	if state == nil {
		return errors.New("no operation in progress")
	}

	log := oplog.Open(repo)
	for _, branch := range state.AllBranches {
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

	if state.MoveTargetParent != "" && state.OldParent != "" {
		if err := store.SetParent(ctx, state.AllBranches[0], state.OldParent); err != nil {
			return err
		}
	}

	if err := opstate.Clear(repo.InternalDir()); err != nil {
		return err
	}
	if state.OriginalBranch != "" && repo.BranchExists(ctx, state.OriginalBranch) {
		if err := repo.CheckoutBranchSafe(ctx, state.OriginalBranch); err != nil {
			return err
		}
	}
	fmt.Println("Aborted; every branch has been restored to its pre-operation state.")
	return nil
}
