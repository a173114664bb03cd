package orchestrator

import (
	"context"

	"emperror.dev/errors"

	"github.com/diamond-stack/diamond/internal/opstate"
	"github.com/diamond-stack/diamond/internal/stackgraph"
)

// RestackScope selects which branches a restack touches.
type RestackScope string

const (
	RestackAll       RestackScope = "all"
	RestackOnly      RestackScope = "only"
	RestackUpstack   RestackScope = "upstack"
	RestackDownstack RestackScope = "downstack"
)

var ErrMoveCycle = errors.Sentinel("new parent is a descendant of the branch being moved")

// PlanRestack computes the ordered branch list for a restack, after the
// orphan-repair pass (expected to have run already via doctor.RepairOrphans).
func (o *Orchestrator) PlanRestack(ctx context.Context, scope RestackScope, branch string) (*Plan, error) {
	trunk, err := o.store.RequireTrunk(ctx)
	if err != nil {
		return nil, err
	}
	original, err := o.repo.CurrentBranchName(ctx)
	if err != nil {
		return nil, err
	}

	var branches []string
	switch scope {
	case RestackAll:
		branches, err = stackgraph.CollectBranchesDFS(ctx, o.store.GetChildren, []string{trunk})
		if err == nil {
			branches = dropTrunk(branches, trunk)
		}
	case RestackOnly:
		branches = []string{branch}
	case RestackUpstack:
		descendants, derr := stackgraph.Descendants(ctx, o.store.GetChildren, branch)
		err = derr
		branches = append([]string{branch}, descendants...)
	case RestackDownstack:
		branches, err = stackgraph.Ancestors(ctx, o.store.GetParent, trunk, branch)
	default:
		return nil, errors.Errorf("unknown restack scope %q", scope)
	}
	if err != nil {
		return nil, err
	}

	parentOf, err := o.newParentMap(ctx, branches)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Kind:           opstate.KindRestack,
		OriginalBranch: original,
		Branches:       branches,
		NewParentOf:    parentOf,
	}, nil
}

// PlanSync computes the ordered branch list for a sync: every tracked branch
// in DFS order from trunk, after fetch/fast-forward and orphan repair have
// already run (the caller is expected to have done so via gitshell/doctor
// before calling this).
func (o *Orchestrator) PlanSync(ctx context.Context) (*Plan, error) {
	trunk, err := o.store.RequireTrunk(ctx)
	if err != nil {
		return nil, err
	}
	original, err := o.repo.CurrentBranchName(ctx)
	if err != nil {
		return nil, err
	}
	branches, err := stackgraph.CollectBranchesDFS(ctx, o.store.GetChildren, []string{trunk})
	if err != nil {
		return nil, err
	}
	branches = dropTrunk(branches, trunk)

	parentOf, err := o.newParentMap(ctx, branches)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Kind:           opstate.KindSync,
		OriginalBranch: original,
		Branches:       branches,
		NewParentOf:    parentOf,
	}, nil
}

// PlanMove computes the plan for `move(branch, newParent)`: branch itself
// plus every descendant. The commit-intent phase reparents branch to
// newParent; descendants keep their recorded parents and simply get
// rebased onto branch's new position.
func (o *Orchestrator) PlanMove(ctx context.Context, branch, newParent string) (*Plan, error) {
	if branch == newParent {
		return nil, errors.New("cannot move a branch onto itself")
	}
	descendants, err := stackgraph.Descendants(ctx, o.store.GetChildren, branch)
	if err != nil {
		return nil, err
	}
	for _, d := range descendants {
		if d == newParent {
			return nil, ErrMoveCycle
		}
	}

	oldParent, _, err := o.store.GetParent(ctx, branch)
	if err != nil {
		return nil, err
	}
	original, err := o.repo.CurrentBranchName(ctx)
	if err != nil {
		return nil, err
	}

	branches := append([]string{branch}, descendants...)
	parentOf, err := o.newParentMap(ctx, descendants)
	if err != nil {
		return nil, err
	}
	parentOf[branch] = newParent

	return &Plan{
		Kind:                 opstate.KindMove,
		OriginalBranch:       original,
		Branches:             branches,
		NewParentOf:          parentOf,
		FirstBranchOldParent: oldParent,
		MoveBranch:           branch,
		MoveTargetParent:     newParent,
		MoveOldParent:        oldParent,
	}, nil
}

// PlanInsert computes the plan for inserting a new branch newBranch between
// an existing parent and child: the caller has already created newBranch
// (based on parent) before calling this. Reparents child to newBranch and
// rebases child onto it; backups are captured for child only.
func (o *Orchestrator) PlanInsert(ctx context.Context, newBranch, child string) (*Plan, error) {
	original, err := o.repo.CurrentBranchName(ctx)
	if err != nil {
		return nil, err
	}
	oldParent, _, err := o.store.GetParent(ctx, child)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Kind:                 opstate.KindInsert,
		OriginalBranch:       original,
		Branches:             []string{child},
		NewParentOf:          map[string]string{child: newBranch},
		FirstBranchOldParent: oldParent,
		MoveBranch:           child,
		MoveTargetParent:     newBranch,
		MoveOldParent:        oldParent,
	}, nil
}

func (o *Orchestrator) newParentMap(ctx context.Context, branches []string) (map[string]string, error) {
	out := make(map[string]string, len(branches))
	for _, b := range branches {
		parent, ok, err := o.store.GetParent(ctx, b)
		if err != nil {
			return nil, err
		}
		if ok {
			out[b] = parent
		}
	}
	return out, nil
}

func dropTrunk(branches []string, trunk string) []string {
	out := branches[:0:0]
	for _, b := range branches {
		if b != trunk {
			out = append(out, b)
		}
	}
	return out
}
