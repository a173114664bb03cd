package orchestrator

import (
	"context"

	"emperror.dev/errors"

	"github.com/diamond-stack/diamond/internal/oplog"
	"github.com/diamond-stack/diamond/internal/opstate"
)

// Abort restores every branch in the in-progress operation from its backup
// ref, reverses any Phase 3 metadata change, clears an in-progress VCS
// rebase, checks out the original branch, and clears OperationState. Errors
// during restoration are collected rather than stopping early, since a
// partial abort is still better than none.
func (o *Orchestrator) Abort(ctx context.Context) error {
	state, err := opstate.Load(o.repo.InternalDir())
	if err != nil {
		return err
	}
	if state == nil {
		return errors.New("no operation in progress")
	}

	if err := o.repo.RebaseAbort(ctx); err != nil {
		return err
	}

	var restoreErrs error
	for _, branch := range state.AllBranches {
		backups, err := o.store.ListBackups(ctx, branch)
		if err != nil || len(backups) == 0 {
			restoreErrs = errors.Combine(restoreErrs, errors.Errorf("no backup found for %q", branch))
			continue
		}
		if err := o.store.RestoreBackup(ctx, branch, backups[0]); err != nil {
			restoreErrs = errors.Combine(restoreErrs, err)
			continue
		}
		_ = o.log.Append(ctx, oplog.Entry{Operation: oplog.BackupRestored, Branch: branch, BackupRef: backups[0]})
	}

	if state.MoveTargetParent != "" && state.OldParent != "" && len(state.AllBranches) > 0 {
		moveBranch := state.AllBranches[0]
		if err := o.store.SetParent(ctx, moveBranch, state.OldParent); err != nil {
			restoreErrs = errors.Combine(restoreErrs, err)
		}
	}

	target := state.OriginalBranch
	if target != "" && o.repo.BranchExists(ctx, target) {
		if err := o.repo.CheckoutBranchSafe(ctx, target); err != nil {
			restoreErrs = errors.Combine(restoreErrs, err)
		}
	}

	if err := opstate.Clear(o.repo.InternalDir()); err != nil {
		restoreErrs = errors.Combine(restoreErrs, err)
	}

	if restoreErrs != nil {
		return errors.Wrap(restoreErrs, "abort completed with errors; run `diamond doctor` to check stack integrity")
	}
	return nil
}
