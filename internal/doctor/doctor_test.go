package doctor_test

import (
	"context"
	"testing"
	"time"

	"github.com/diamond-stack/diamond/internal/doctor"
	"github.com/diamond-stack/diamond/internal/gitshell/gittest"
	"github.com/diamond-stack/diamond/internal/refstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReportsMissingTrunk(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)
	d := doctor.New(repo, store)

	findings, err := d.Check(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, doctor.MissingTrunk, findings[0].Kind)
}

func TestCheckReportsTrackedBranchMissing(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)
	d := doctor.New(repo, store)

	require.NoError(t, store.SetTrunk(ctx, "main"))
	tr.CreateBranch(t, "a")
	tr.CommitFile(t, "a.txt", "a")
	require.NoError(t, store.SetParent(ctx, "a", "main"))
	tr.Checkout(t, "main")
	require.NoError(t, repo.DeleteBranch(ctx, "a"))

	findings, err := d.Check(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, doctor.TrackedBranchMissing, findings[0].Kind)
	assert.Equal(t, "a", findings[0].Branch)
}

func TestFixRemovesCorruptedRef(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)
	d := doctor.New(repo, store)

	require.NoError(t, store.SetTrunk(ctx, "main"))
	tr.CreateBranch(t, "f")
	tr.CommitFile(t, "f.txt", "f")

	oid, err := repo.CreateBlob(ctx, []byte(""))
	require.NoError(t, err)
	require.NoError(t, repo.CreateReference(ctx, "refs/diamond/parent/f", oid, ""))

	findings, err := d.Check(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, doctor.CorruptedRef, findings[0].Kind)

	unfixed, err := d.Fix(ctx, findings)
	require.NoError(t, err)
	assert.Empty(t, unfixed)

	findings, err = d.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestGCRetainsMostRecentAndDeletesOld(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	store := refstore.New(repo)
	d := doctor.New(repo, store)

	require.NoError(t, store.SetTrunk(ctx, "main"))
	tr.CreateBranch(t, "a")
	tr.CommitFile(t, "a.txt", "a")
	require.NoError(t, store.SetParent(ctx, "a", "main"))

	sha, err := repo.BranchSHA(ctx, "a")
	require.NoError(t, err)

	old := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, repo.CreateReference(ctx, refstore.BackupRefName("a", old), sha, ""))
	require.NoError(t, repo.CreateReference(ctx, refstore.BackupRefName("a", time.Now()), sha, ""))

	deleted, err := d.GC(ctx, doctor.GCOptions{})
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	remaining, err := store.ListBackups(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
