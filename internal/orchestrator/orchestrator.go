// Package orchestrator implements the six-phase contract shared by every
// multi-branch mutation (sync, restack, move, insert): guard, plan, backup,
// commit-intent, execute, finalize. Phases 2-5 are checkpointed through
// internal/opstate so a rebase conflict can be resumed with `continue` or
// unwound with `abort` across process restarts.
package orchestrator

import (
	"context"
	"fmt"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/oplock"
	"github.com/diamond-stack/diamond/internal/oplog"
	"github.com/diamond-stack/diamond/internal/opstate"
	"github.com/diamond-stack/diamond/internal/refstore"
)

// ErrDirtyWorktree is returned by guard when tracked files are staged or
// modified. Untracked files are allowed.
var ErrDirtyWorktree = errors.Sentinel("refusing to start: the worktree has staged or modified tracked files")

// ErrOperationInProgress is returned by guard when an OperationState already
// exists and the caller did not ask for continue/abort.
type ErrOperationInProgress struct {
	Kind opstate.Kind
}

func (e *ErrOperationInProgress) Error() string {
	return fmt.Sprintf("a %s operation is already in progress; run `continue` or `abort`", e.Kind)
}

// Plan is the ordered work computed in Phase 1 for one operation.
type Plan struct {
	Kind           opstate.Kind
	OriginalBranch string
	Branches       []string // processing order
	NewParentOf    map[string]string
	// FirstBranchOldParent is set for move/insert: the first branch in
	// Branches rebases with rebase_onto_from(branch, newParent, oldParent)
	// instead of rebase_fork_point.
	FirstBranchOldParent string
	// MoveTargetParent/OldParent record the move-specific metadata change
	// for the abort path to reverse.
	MoveBranch       string
	MoveTargetParent string
	MoveOldParent    string
}

// ConflictReport is surfaced to the user when a rebase stops on conflicts.
type ConflictReport struct {
	Branch            string
	NewBase           string
	RemainingBranches []string
	ConflictingPaths  []string
}

// Status is the outcome of Execute/Continue.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusConflict   Status = "conflict"
	StatusNothingToDo Status = "nothing_to_do"
)

// Result is returned by Execute and Continue.
type Result struct {
	Status   Status
	Conflict *ConflictReport
}

// Orchestrator drives one repository's operation lifecycle.
type Orchestrator struct {
	repo   *gitshell.Repo
	store  *refstore.RefStore
	log    *oplog.Log
	opLock *oplock.Lock
}

func New(repo *gitshell.Repo, store *refstore.RefStore) *Orchestrator {
	return &Orchestrator{
		repo:   repo,
		store:  store,
		log:    oplog.Open(repo),
		opLock: oplock.New(oplock.OperationPath(repo.InternalDir())),
	}
}

// Guard implements Phase 0: clean-enough worktree, trunk configured,
// operation lock acquired (non-blocking), and the interrupted-operation
// check. The returned guard must be released by the caller once the
// operation concludes (success, conflict-stop, or abort).
func (o *Orchestrator) Guard(ctx context.Context) (*oplock.Guard, error) {
	status, err := o.repo.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !status.IsCleanIgnoringUntracked() {
		return nil, ErrDirtyWorktree
	}
	if _, err := o.store.RequireTrunk(ctx); err != nil {
		return nil, err
	}

	guard, err := o.opLock.TryAcquire()
	if err != nil {
		return nil, err
	}

	state, stale, err := opstate.LoadFresh(ctx, o.repo)
	if err != nil {
		guard.Release()
		return nil, err
	}
	if stale {
		logrus.Warn("cleared a stale in-progress operation state")
	}
	if state != nil {
		guard.Release()
		return nil, &ErrOperationInProgress{Kind: state.Kind}
	}
	return guard, nil
}

// Start runs Phases 2-4 for a freshly planned operation: backup every
// planned branch, commit metadata intent and save OperationState, then
// execute the rebase chain.
func (o *Orchestrator) Start(ctx context.Context, plan *Plan, skipBackup bool) (*Result, error) {
	if err := o.logStart(ctx, plan); err != nil {
		return nil, err
	}

	if !skipBackup {
		if err := o.backup(ctx, plan.Branches); err != nil {
			return nil, err
		}
	}

	if err := o.commitIntent(ctx, plan); err != nil {
		return nil, err
	}

	state := &opstate.State{
		Kind:              plan.Kind,
		InProgress:        true,
		OriginalBranch:    plan.OriginalBranch,
		AllBranches:       append([]string{}, plan.Branches...),
		RemainingBranches: append([]string{}, plan.Branches...),
		MoveTargetParent:  plan.MoveTargetParent,
		OldParent:         plan.MoveOldParent,
	}
	if err := opstate.Save(o.repo.InternalDir(), state); err != nil {
		return nil, err
	}

	return o.execute(ctx, state, plan)
}

// Continue resumes Phase 4 after the user resolved a rebase conflict and
// ran `git rebase --continue` (or the equivalent diamond subcommand).
func (o *Orchestrator) Continue(ctx context.Context) (*Result, error) {
	state, err := opstate.Load(o.repo.InternalDir())
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, errors.New("no operation in progress")
	}
	if o.repo.RebaseInProgress(ctx) {
		if _, err := o.repo.RebaseContinue(ctx); err != nil {
			return nil, err
		}
	}
	return o.execute(ctx, state, nil)
}

func (o *Orchestrator) backup(ctx context.Context, branches []string) error {
	for _, b := range branches {
		ref, err := o.store.CreateBackup(ctx, b)
		if err != nil {
			return err
		}
		if err := o.log.Append(ctx, oplog.Entry{Operation: oplog.BackupCreated, Branch: b, BackupRef: ref}); err != nil {
			return err
		}
	}
	return nil
}

// commitIntent writes metadata changes before touching the VCS, per Phase 3.
// Only move/insert carry a metadata change; sync/restack leave parents
// untouched (they only rebase commits).
func (o *Orchestrator) commitIntent(ctx context.Context, plan *Plan) error {
	if plan.MoveBranch == "" {
		return nil
	}
	return o.store.SetParent(ctx, plan.MoveBranch, plan.MoveTargetParent)
}

func (o *Orchestrator) execute(ctx context.Context, state *opstate.State, plan *Plan) (*Result, error) {
	first := state.CompletedBranches == nil && len(state.AllBranches) == len(state.RemainingBranches)

	for {
		branch, ok := state.Advance()
		if !ok {
			break
		}
		if err := opstate.Save(o.repo.InternalDir(), state); err != nil {
			return nil, err
		}

		newParent := ""
		if plan != nil {
			newParent = plan.NewParentOf[branch]
		}
		if newParent == "" {
			parent, hasParent, err := o.store.GetParent(ctx, branch)
			if err != nil {
				return nil, err
			}
			if hasParent {
				newParent = parent
			}
		}
		if newParent == "" {
			state.MarkCompleted()
			continue
		}

		basedOn, err := o.repo.IsBranchBasedOn(ctx, branch, newParent)
		if err != nil {
			return nil, err
		}
		if basedOn {
			state.MarkCompleted()
			continue
		}

		var result *gitshell.RebaseResult
		if first && plan != nil && plan.FirstBranchOldParent != "" && branch == plan.Branches[0] {
			result, err = o.repo.RebaseOntoFrom(ctx, branch, newParent, plan.FirstBranchOldParent)
		} else {
			result, err = o.repo.RebaseForkPoint(ctx, branch, newParent)
		}
		first = false
		if err != nil {
			return nil, err
		}

		if result.Status == gitshell.RebaseConflicts {
			if err := opstate.Save(o.repo.InternalDir(), state); err != nil {
				return nil, err
			}
			return &Result{
				Status: StatusConflict,
				Conflict: &ConflictReport{
					Branch:            branch,
					NewBase:           newParent,
					RemainingBranches: append([]string{}, state.RemainingBranches...),
					ConflictingPaths:  result.ConflictingPaths,
				},
			}, nil
		}

		state.MarkCompleted()
	}

	return o.finalize(ctx, state)
}

func (o *Orchestrator) finalize(ctx context.Context, state *opstate.State) (*Result, error) {
	if err := opstate.Clear(o.repo.InternalDir()); err != nil {
		return nil, err
	}

	target := state.OriginalBranch
	if !o.repo.BranchExists(ctx, target) {
		trunk, _, err := o.store.GetTrunk(ctx)
		if err == nil && trunk != "" {
			target = trunk
		}
	}
	if target != "" {
		if err := o.repo.CheckoutBranchSafe(ctx, target); err != nil {
			logrus.WithError(err).Warn("could not check out original branch after operation")
		}
	}

	if err := o.logCompleted(ctx, state, true); err != nil {
		return nil, err
	}
	return &Result{Status: StatusCompleted}, nil
}

func startEventFor(kind opstate.Kind) oplog.EventType {
	switch kind {
	case opstate.KindRestack:
		return oplog.RestackStarted
	case opstate.KindMove:
		return oplog.MoveStarted
	case opstate.KindInsert:
		return oplog.InsertStarted
	default:
		return oplog.SyncStarted
	}
}

func completedEventFor(kind opstate.Kind) oplog.EventType {
	switch kind {
	case opstate.KindRestack:
		return oplog.RestackCompleted
	case opstate.KindMove:
		return oplog.MoveCompleted
	case opstate.KindInsert:
		return oplog.InsertCompleted
	default:
		return oplog.SyncCompleted
	}
}

func (o *Orchestrator) logStart(ctx context.Context, plan *Plan) error {
	return o.log.Append(ctx, oplog.Entry{Operation: startEventFor(plan.Kind), Branches: plan.Branches})
}

func (o *Orchestrator) logCompleted(ctx context.Context, state *opstate.State, success bool) error {
	op := completedEventFor(state.Kind)
	return o.log.Append(ctx, oplog.Entry{Operation: op, Branches: state.CompletedBranches, Success: success})
}
