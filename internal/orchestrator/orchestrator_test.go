package orchestrator_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/diamond-stack/diamond/internal/gitshell/gittest"
	"github.com/diamond-stack/diamond/internal/orchestrator"
	"github.com/diamond-stack/diamond/internal/refstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*orchestrator.Orchestrator, *refstore.RefStore, *gittest.TestRepo) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	tr.CreateBranch(t, "a")
	tr.CommitFile(t, "a.txt", "a")
	require.NoError(t, store.SetParent(ctx, "a", "main"))

	tr.CreateBranch(t, "b")
	tr.CommitFile(t, "b.txt", "b")
	require.NoError(t, store.SetParent(ctx, "b", "a"))

	tr.Checkout(t, "main")
	tr.CreateBranch(t, "c")
	tr.CommitFile(t, "c.txt", "c")
	require.NoError(t, store.SetParent(ctx, "c", "main"))

	return orchestrator.New(repo, store), store, tr
}

func TestPlanRestackAllOrdersFromTrunk(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)

	plan, err := o.PlanRestack(ctx, orchestrator.RestackAll, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, plan.Branches)
}

func TestPlanRestackUpstackIncludesSelfAndDescendants(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)

	plan, err := o.PlanRestack(ctx, orchestrator.RestackUpstack, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan.Branches)
}

func TestPlanRestackDownstackExcludesTrunk(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)

	plan, err := o.PlanRestack(ctx, orchestrator.RestackDownstack, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan.Branches)
	assert.NotContains(t, plan.Branches, "main")
}

func TestPlanMoveRejectsCycle(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)

	_, err := o.PlanMove(ctx, "a", "b")
	assert.ErrorIs(t, err, orchestrator.ErrMoveCycle)
}

func TestPlanMoveComputesOldAndNewParent(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)

	plan, err := o.PlanMove(ctx, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, "main", plan.MoveOldParent)
	assert.Equal(t, "a", plan.MoveTargetParent)
	assert.Equal(t, []string{"c"}, plan.Branches)
}

func TestGuardSucceedsOnCleanWorktree(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)

	guard, err := o.Guard(ctx)
	require.NoError(t, err)
	require.NoError(t, guard.Release())
}

func TestGuardRejectsDirtyWorktree(t *testing.T) {
	ctx := context.Background()
	o, _, tr := setup(t)

	fp := filepath.Join(tr.Dir, "README.md")
	require.NoError(t, os.WriteFile(fp, []byte("modified"), 0o644))
	cmd := exec.Command("git", "add", "README.md")
	cmd.Dir = tr.Dir
	require.NoError(t, cmd.Run())

	_, err := o.Guard(ctx)
	assert.ErrorIs(t, err, orchestrator.ErrDirtyWorktree)
}
