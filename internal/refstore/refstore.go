// Package refstore persists Diamond's stack metadata (parent pointers,
// trunk designation, freeze markers, backup refs) as blob-backed git
// references, per spec.md §3–§4.B. References pointing at blobs travel
// through push/fetch, are never rewritten by rebase, and survive garbage
// collection as long as they're reachable from a ref — which is exactly
// why parent pointers are stored this way instead of in a JSON side file.
package refstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/diamond-stack/diamond/internal/gitshell"
	"github.com/diamond-stack/diamond/internal/oplock"
)

const (
	parentPrefix = "refs/diamond/parent/"
	trunkRef     = "refs/diamond/config/trunk"
	frozenPrefix = "refs/diamond/frozen/"
	backupPrefix = "refs/diamond/backup/"
)

// RefStore is the git-ref-backed metadata store for one repository.
type RefStore struct {
	repo *gitshell.Repo
	lock *oplock.Lock
}

func New(repo *gitshell.Repo) *RefStore {
	return &RefStore{
		repo: repo,
		lock: oplock.New(oplock.RefStorePath(repo.InternalDir())),
	}
}

// Lock acquires the RefStore-scope lock, blocking until available.
func (s *RefStore) Lock() (*oplock.Guard, error) { return s.lock.Acquire() }

// TryLock attempts a non-blocking acquire of the RefStore-scope lock.
func (s *RefStore) TryLock() (*oplock.Guard, error) { return s.lock.TryAcquire() }

// SetParent records child's parent. Fails with ErrInvalidArgument when
// child == parent, and with *MissingBranchError when parent does not
// currently exist in the VCS.
func (s *RefStore) SetParent(ctx context.Context, child, parent string) error {
	if child == parent {
		return ErrInvalidArgument
	}
	if !s.repo.BranchExists(ctx, parent) {
		return &MissingBranchError{Name: parent}
	}
	oid, err := s.repo.CreateBlob(ctx, []byte(parent))
	if err != nil {
		return err
	}
	return s.repo.CreateReference(ctx, parentRefName(child), oid, "diamond: set parent of "+child)
}

// GetParent reads and validates child's parent ref. Returns ("", false, nil)
// when the ref is absent, (parent, true, nil) on success, and a
// *CorruptedRefError when the blob content fails validation.
func (s *RefStore) GetParent(ctx context.Context, child string) (string, bool, error) {
	oid, ok := s.repo.FindReference(ctx, parentRefName(child))
	if !ok {
		return "", false, nil
	}
	content, err := s.repo.ReadBlob(ctx, oid)
	if err != nil {
		return "", false, err
	}
	parent := string(content)
	if reason, valid := ValidateBranchName(parent); !valid {
		return "", false, &CorruptedRefError{Branch: child, Reason: reason}
	}
	return parent, true, nil
}

// GetParentUnchecked reads child's parent ref without validating its
// content, for use by the doctor/repair path so it can observe corruption
// without failing.
func (s *RefStore) GetParentUnchecked(ctx context.Context, child string) (string, bool, error) {
	oid, ok := s.repo.FindReference(ctx, parentRefName(child))
	if !ok {
		return "", false, nil
	}
	content, err := s.repo.ReadBlob(ctx, oid)
	if err != nil {
		return "", false, err
	}
	return string(content), true, nil
}

// RemoveParent deletes child's parent ref. Idempotent.
func (s *RefStore) RemoveParent(ctx context.Context, child string) error {
	return s.repo.DeleteReference(ctx, parentRefName(child))
}

// GetChildren scans all parent refs and returns the set of branches whose
// parent equals parent. O(n) in tracked-branch count by design: the set is
// small, and correctness under concurrent edits matters more than speed.
func (s *RefStore) GetChildren(ctx context.Context, parent string) ([]string, error) {
	all, err := s.allParents(ctx)
	if err != nil {
		return nil, err
	}
	var children []string
	for child, p := range all {
		if p == parent {
			children = append(children, child)
		}
	}
	sort.Strings(children)
	return children, nil
}

// allParents returns every tracked branch's unchecked parent content,
// keyed by branch name. Corrupted entries are included as-is; callers that
// need validated data should go through GetParent per-branch.
func (s *RefStore) allParents(ctx context.Context) (map[string]string, error) {
	refs, err := s.repo.ListReferences(ctx, parentPrefix+"**")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		name := strings.TrimPrefix(ref.Name, parentPrefix)
		content, err := s.repo.ReadBlob(ctx, ref.Oid)
		if err != nil {
			continue
		}
		out[name] = string(content)
	}
	return out, nil
}

// TrackedBranches returns every branch with a parent ref, in sorted order.
func (s *RefStore) TrackedBranches(ctx context.Context) ([]string, error) {
	all, err := s.allParents(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RefStore) IsTracked(ctx context.Context, branch string) bool {
	_, ok := s.repo.FindReference(ctx, parentRefName(branch))
	return ok
}

// SetTrunk designates the repository's trunk branch. Validates that the
// branch exists.
func (s *RefStore) SetTrunk(ctx context.Context, name string) error {
	if !s.repo.BranchExists(ctx, name) {
		return &MissingBranchError{Name: name}
	}
	oid, err := s.repo.CreateBlob(ctx, []byte(name))
	if err != nil {
		return err
	}
	return s.repo.CreateReference(ctx, trunkRef, oid, "diamond: set trunk")
}

// GetTrunk returns the configured trunk branch, if any.
func (s *RefStore) GetTrunk(ctx context.Context) (string, bool, error) {
	oid, ok := s.repo.FindReference(ctx, trunkRef)
	if !ok {
		return "", false, nil
	}
	content, err := s.repo.ReadBlob(ctx, oid)
	if err != nil {
		return "", false, err
	}
	return string(content), true, nil
}

// RequireTrunk returns the trunk branch or ErrNotInitialized.
func (s *RefStore) RequireTrunk(ctx context.Context) (string, error) {
	trunk, ok, err := s.GetTrunk(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotInitialized
	}
	return trunk, nil
}

// IsFrozen reports whether branch has a freeze marker.
func (s *RefStore) IsFrozen(ctx context.Context, branch string) bool {
	_, ok := s.repo.FindReference(ctx, frozenRefName(branch))
	return ok
}

// SetFrozen idempotently sets or clears branch's freeze marker.
func (s *RefStore) SetFrozen(ctx context.Context, branch string, frozen bool) error {
	if !frozen {
		return s.repo.DeleteReference(ctx, frozenRefName(branch))
	}
	oid, err := s.repo.CreateBlob(ctx, nil)
	if err != nil {
		return err
	}
	return s.repo.CreateReference(ctx, frozenRefName(branch), oid, "diamond: freeze "+branch)
}

// ListFrozenBranches returns every currently-frozen branch, sorted.
func (s *RefStore) ListFrozenBranches(ctx context.Context) ([]string, error) {
	refs, err := s.repo.ListReferences(ctx, frozenPrefix+"**")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, strings.TrimPrefix(ref.Name, frozenPrefix))
	}
	sort.Strings(names)
	return names, nil
}

// CreateBackup captures branch's current commit under a timestamped backup
// ref, returning the ref name so callers can log/restore from it.
func (s *RefStore) CreateBackup(ctx context.Context, branch string) (string, error) {
	sha, err := s.repo.BranchSHA(ctx, branch)
	if err != nil {
		return "", err
	}
	ref := BackupRefName(branch, time.Now())
	if err := s.repo.CreateReference(ctx, ref, sha, "diamond: backup "+branch); err != nil {
		return "", err
	}
	return ref, nil
}

// RestoreBackup force-updates branch to the commit captured by a backup ref.
func (s *RefStore) RestoreBackup(ctx context.Context, branch, backupRef string) error {
	oid, ok := s.repo.FindReference(ctx, backupRef)
	if !ok {
		return fmt.Errorf("backup ref %q not found", backupRef)
	}
	_, err := s.repo.Run(ctx, &gitshell.RunOpts{
		Args:      []string{"update-ref", "refs/heads/" + branch, oid},
		ExitError: true,
	})
	return err
}

// ListBackups returns every backup ref for branch, newest first.
func (s *RefStore) ListBackups(ctx context.Context, branch string) ([]string, error) {
	refs, err := s.repo.ListReferences(ctx, backupPrefix+branch+"-**")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// RemoveBranchReparent is the compound primitive used when deleting a
// middle node of a stack: under an exclusive RefStore lock, every child of
// branch is reparented to branch's own parent (or left parentless if
// branch had none), then branch's own parent ref is removed. Locked
// because two concurrent deletes of sibling middle-nodes must not
// interleave their reads and writes of the child set.
func (s *RefStore) RemoveBranchReparent(ctx context.Context, branch string) error {
	guard, err := s.Lock()
	if err != nil {
		return err
	}
	defer guard.Release()

	newParent, hasParent, err := s.GetParent(ctx, branch)
	if err != nil {
		return err
	}
	children, err := s.GetChildren(ctx, branch)
	if err != nil {
		return err
	}
	for _, child := range children {
		if hasParent {
			if err := s.SetParent(ctx, child, newParent); err != nil {
				return err
			}
		} else {
			if err := s.RemoveParent(ctx, child); err != nil {
				return err
			}
		}
	}
	return s.RemoveParent(ctx, branch)
}

// ClearAll removes every Diamond ref in the repository (parents, trunk,
// freeze markers, backups). Used by `init --reset`. Locked for the same
// reason as RemoveBranchReparent: a concurrent read must never observe a
// partially-cleared store.
func (s *RefStore) ClearAll(ctx context.Context) error {
	guard, err := s.Lock()
	if err != nil {
		return err
	}
	defer guard.Release()

	refs, err := s.repo.ListReferences(ctx, "refs/diamond/**")
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := s.repo.DeleteReference(ctx, ref.Name); err != nil {
			return err
		}
	}
	return nil
}

func parentRefName(branch string) string { return parentPrefix + branch }
func frozenRefName(branch string) string { return frozenPrefix + branch }

// BackupRefName builds a backup ref name embedding the origin branch and
// creation time (used for recovery display and age-based GC).
func BackupRefName(branch string, t time.Time) string {
	return fmt.Sprintf("%s%s-%d", backupPrefix, branch, t.Unix())
}
