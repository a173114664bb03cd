// Package doctor validates the RefStore/VCS invariants that the rest of
// Diamond assumes hold (every tracked branch exists, parents resolve, the
// parent graph has no cycles, trunk is configured) and repairs what can be
// repaired automatically.
package doctor

import (
	"context"
	"fmt"
	"sort"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/refstore"
	"github.com/diamond-stack/diamond/internal/stackgraph"
)

// FindingKind discriminates the tagged variants of a Finding.
type FindingKind string

const (
	MissingTrunk         FindingKind = "missing_trunk"
	TrackedBranchMissing FindingKind = "tracked_branch_missing"
	OrphanedParent       FindingKind = "orphaned_parent"
	CycleFinding         FindingKind = "cycle"
	CorruptedRef         FindingKind = "corrupted_ref"
)

// Finding is one diagnostic surfaced by Check.
type Finding struct {
	Kind    FindingKind
	Branch  string
	Path    []string // populated for CycleFinding
	Reason  string   // populated for CorruptedRef
	Fixable bool
}

func (f Finding) String() string {
	switch f.Kind {
	case MissingTrunk:
		return "no trunk branch configured"
	case TrackedBranchMissing:
		return fmt.Sprintf("branch %q is tracked but no longer exists", f.Branch)
	case OrphanedParent:
		return fmt.Sprintf("branch %q's parent is neither tracked nor trunk", f.Branch)
	case CycleFinding:
		return fmt.Sprintf("cycle detected: %v", f.Path)
	case CorruptedRef:
		return fmt.Sprintf("branch %q has a corrupted parent ref: %s", f.Branch, f.Reason)
	default:
		return string(f.Kind)
	}
}

// Doctor runs validation and repair against one repository's RefStore.
type Doctor struct {
	repo  *gitshell.Repo
	store *refstore.RefStore
}

func New(repo *gitshell.Repo, store *refstore.RefStore) *Doctor {
	return &Doctor{repo: repo, store: store}
}

// Check enumerates every finding without modifying anything.
func (d *Doctor) Check(ctx context.Context) ([]Finding, error) {
	var findings []Finding

	trunk, hasTrunk, err := d.store.GetTrunk(ctx)
	if err != nil {
		return nil, err
	}
	if !hasTrunk {
		findings = append(findings, Finding{Kind: MissingTrunk})
	}

	branches, err := d.store.TrackedBranches(ctx)
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]bool, len(branches))
	for _, b := range branches {
		tracked[b] = true
	}

	for _, b := range branches {
		if !d.repo.BranchExists(ctx, b) {
			findings = append(findings, Finding{Kind: TrackedBranchMissing, Branch: b, Fixable: true})
			continue
		}

		parent, ok, err := d.store.GetParentUnchecked(ctx, b)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if reason, valid := refstore.ValidateBranchName(parent); !valid {
			findings = append(findings, Finding{Kind: CorruptedRef, Branch: b, Reason: reason, Fixable: true})
			continue
		}
		if hasTrunk && parent != trunk && !tracked[parent] {
			findings = append(findings, Finding{Kind: OrphanedParent, Branch: b, Fixable: true})
		}
	}

	if hasTrunk {
		for _, b := range branches {
			if _, err := stackgraph.Ancestors(ctx, d.store.GetParentUnchecked, trunk, b); err != nil {
				var cycleErr *stackgraph.ErrCycle
				if ok := asCycle(err, &cycleErr); ok {
					findings = append(findings, Finding{Kind: CycleFinding, Path: cycleErr.Path})
				}
			}
		}
	}

	findings = dedupeCycles(findings)
	return findings, nil
}

func asCycle(err error, target **stackgraph.ErrCycle) bool {
	cycleErr, ok := err.(*stackgraph.ErrCycle)
	if !ok {
		return false
	}
	*target = cycleErr
	return true
}

// dedupeCycles collapses cycle findings that describe the same loop
// (discovered once per branch on the cycle).
func dedupeCycles(findings []Finding) []Finding {
	seen := map[string]bool{}
	out := findings[:0:0]
	for _, f := range findings {
		if f.Kind != CycleFinding {
			out = append(out, f)
			continue
		}
		key := cycleKey(f.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func cycleKey(path []string) string {
	sorted := append([]string{}, path...)
	sort.Strings(sorted)
	return fmt.Sprint(sorted)
}

// Fix applies the automatic repair for every fixable finding: removes
// tracked-missing and corrupted refs, and applies the orphan-repair ladder.
// Cycles and a missing trunk are reported but never auto-fixed.
func (d *Doctor) Fix(ctx context.Context, findings []Finding) ([]Finding, error) {
	var unfixed []Finding
	for _, f := range findings {
		switch f.Kind {
		case TrackedBranchMissing, CorruptedRef:
			if err := d.store.RemoveParent(ctx, f.Branch); err != nil {
				return nil, err
			}
		case OrphanedParent:
			if err := d.RepairOrphan(ctx, f.Branch); err != nil {
				unfixed = append(unfixed, f)
			}
		default:
			unfixed = append(unfixed, f)
		}
	}
	return unfixed, nil
}
