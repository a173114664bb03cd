package refstore_test

import (
	"context"
	"testing"

	"github.com/diamond-stack/diamond/internal/gitshell/gittest"
	"github.com/diamond-stack/diamond/internal/refstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetParentRoundTrip(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)

	tr.CreateBranch(t, "feature-a")
	tr.CommitFile(t, "a.txt", "a")
	tr.Checkout(t, "main")
	tr.CreateBranch(t, "feature-b")

	require.NoError(t, store.SetTrunk(ctx, "main"))
	require.NoError(t, store.SetParent(ctx, "feature-a", "main"))

	parent, ok, err := store.GetParent(ctx, "feature-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", parent)

	_, ok, err = store.GetParent(ctx, "feature-b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetParentRejectsSelfAndMissing(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)

	err := store.SetParent(ctx, "main", "main")
	assert.ErrorIs(t, err, refstore.ErrInvalidArgument)

	err = store.SetParent(ctx, "feature", "does-not-exist")
	var missing *refstore.MissingBranchError
	assert.ErrorAs(t, err, &missing)
}

func TestGetChildren(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)

	tr.CreateBranch(t, "a")
	tr.CommitFile(t, "a.txt", "a")
	tr.CreateBranch(t, "b")
	tr.CommitFile(t, "b.txt", "b")
	tr.Checkout(t, "a")
	tr.CreateBranch(t, "c")
	tr.CommitFile(t, "c.txt", "c")

	require.NoError(t, store.SetParent(ctx, "a", "main"))
	require.NoError(t, store.SetParent(ctx, "b", "a"))
	require.NoError(t, store.SetParent(ctx, "c", "a"))

	children, err := store.GetChildren(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, children)
}

func TestRemoveBranchReparent(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)

	tr.CreateBranch(t, "a")
	tr.CommitFile(t, "a.txt", "a")
	tr.CreateBranch(t, "b")
	tr.CommitFile(t, "b.txt", "b")

	require.NoError(t, store.SetParent(ctx, "a", "main"))
	require.NoError(t, store.SetParent(ctx, "b", "a"))

	require.NoError(t, store.RemoveBranchReparent(ctx, "a"))

	parent, ok, err := store.GetParent(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", parent)

	_, ok, err = store.GetParent(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFreezeIdempotent(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)

	tr.CreateBranch(t, "a")
	tr.CommitFile(t, "a.txt", "a")

	require.NoError(t, store.SetFrozen(ctx, "a", true))
	require.NoError(t, store.SetFrozen(ctx, "a", true))
	assert.True(t, store.IsFrozen(ctx, "a"))

	require.NoError(t, store.SetFrozen(ctx, "a", false))
	require.NoError(t, store.SetFrozen(ctx, "a", false))
	assert.False(t, store.IsFrozen(ctx, "a"))
}

func TestCorruptedRefDetected(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)

	tr.CreateBranch(t, "f", )
	tr.CommitFile(t, "f.txt", "f")

	oid, err := repo.CreateBlob(ctx, []byte(""))
	require.NoError(t, err)
	require.NoError(t, repo.CreateReference(ctx, "refs/diamond/parent/f", oid, ""))

	_, _, err = store.GetParent(ctx, "f")
	var corrupt *refstore.CorruptedRefError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, "f", corrupt.Branch)

	content, ok, err := store.GetParentUnchecked(ctx, "f")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", content)
}
