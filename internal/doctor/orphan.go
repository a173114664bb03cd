package doctor

import "context"

// RepairOrphan applies the orphan-branch repair ladder to a single tracked
// branch whose parent ref names a branch not currently in the VCS:
//
//  1. If the remote equivalent of the missing parent still resolves and is
//     an ancestor of the child, reparent child to trunk (the parent was
//     rebased into the child).
//  2. Else if that remote ref is an ancestor of trunk, reparent child to
//     trunk (the parent was merged).
//  3. Else if trunk is an ancestor of the child, reparent child to trunk.
//  4. Otherwise leave the orphan for manual intervention.
func (d *Doctor) RepairOrphan(ctx context.Context, child string) error {
	trunk, err := d.store.RequireTrunk(ctx)
	if err != nil {
		return err
	}
	parent, ok, err := d.store.GetParentUnchecked(ctx, child)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if remoteRef, hasRemote := d.repo.RemoteTrackingBranch(parent); hasRemote {
		if _, err := d.repo.ResolveRef(ctx, remoteRef); err == nil {
			if isAncestor, _ := d.repo.IsAncestor(ctx, remoteRef, child); isAncestor {
				return d.store.SetParent(ctx, child, trunk)
			}
			if isAncestor, _ := d.repo.IsAncestor(ctx, remoteRef, trunk); isAncestor {
				return d.store.SetParent(ctx, child, trunk)
			}
		}
	}

	if isAncestor, _ := d.repo.IsAncestor(ctx, trunk, child); isAncestor {
		return d.store.SetParent(ctx, child, trunk)
	}

	return errOrphanUnresolved
}

var errOrphanUnresolved = errUnresolved{}

type errUnresolved struct{}

func (errUnresolved) Error() string { return "orphan could not be repaired automatically" }

// RepairOrphans runs RepairOrphan across every tracked branch whose parent
// is neither trunk nor tracked, as a pre-planning pass for sync/restack.
// Branches that cannot be repaired are left as-is; callers should surface
// them via Check/Fix rather than fail the operation outright.
func (d *Doctor) RepairOrphans(ctx context.Context) error {
	findings, err := d.Check(ctx)
	if err != nil {
		return err
	}
	for _, f := range findings {
		if f.Kind != OrphanedParent {
			continue
		}
		_ = d.RepairOrphan(ctx, f.Branch)
	}
	return nil
}
