package oplog_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/diamond-stack/diamond/internal/gitshell/gittest"
	"github.com/diamond-stack/diamond/internal/oplog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	log := oplog.Open(repo)

	require.NoError(t, log.Append(ctx, oplog.Entry{Operation: oplog.BranchCreated, Branch: "a"}))
	require.NoError(t, log.Append(ctx, oplog.Entry{Operation: oplog.BranchDeleted, Branch: "a"}))

	entries, err := log.All()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, oplog.BranchCreated, entries[0].Operation)
	assert.Equal(t, oplog.BranchDeleted, entries[1].Operation)
}

func TestAllOnMissingFileIsEmpty(t *testing.T) {
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	log := oplog.Open(repo)

	entries, err := log.All()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRotationKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)
	log := oplog.Open(repo)

	total := oplog.MaxEntries + oplog.MaxEntries/10 + 5
	for i := 0; i < total; i++ {
		require.NoError(t, log.Append(ctx, oplog.Entry{Operation: oplog.BranchCreated, Branch: fmt.Sprintf("b%d", i)}))
	}

	entries, err := log.All()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), oplog.MaxEntries+100)
	assert.Equal(t, fmt.Sprintf("b%d", total-1), entries[len(entries)-1].Branch)
	assert.Equal(t, fmt.Sprintf("b%d", total-len(entries)), entries[0].Branch)
}

func TestNextUndoFindsCompletedSync(t *testing.T) {
	entries := []oplog.Entry{
		{Operation: oplog.SyncStarted, Branches: []string{"a", "b"}},
		{Operation: oplog.BackupCreated, Branch: "a"},
		{Operation: oplog.SyncCompleted, Success: true, Branches: []string{"a", "b"}},
	}
	cand, ok := oplog.NextUndo(entries)
	require.True(t, ok)
	assert.Equal(t, oplog.SyncStarted, cand.Started.Operation)
	assert.ElementsMatch(t, []string{"a", "b"}, cand.Branches)
}

func TestNextUndoSkipsFullyRestoredOperation(t *testing.T) {
	entries := []oplog.Entry{
		{Operation: oplog.SyncStarted, Branches: []string{"a"}},
		{Operation: oplog.SyncCompleted, Success: true, Branches: []string{"a"}},
		{Operation: oplog.BackupRestored, Branch: "a"},
	}
	_, ok := oplog.NextUndo(entries)
	assert.False(t, ok)
}

func TestNextUndoIgnoresFailedCompletion(t *testing.T) {
	entries := []oplog.Entry{
		{Operation: oplog.RestackStarted, Branches: []string{"a"}},
		{Operation: oplog.RestackCompleted, Success: false, Branches: []string{"a"}},
	}
	_, ok := oplog.NextUndo(entries)
	assert.False(t, ok)
}
