package opstate_test

import (
	"context"
	"testing"

	"github.com/diamond-stack/diamond/internal/gitshell/gittest"
	"github.com/diamond-stack/diamond/internal/opstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)

	s := &opstate.State{
		Kind:              opstate.KindSync,
		InProgress:        true,
		OriginalBranch:    "feature",
		AllBranches:       []string{"a", "b"},
		RemainingBranches: []string{"a", "b"},
	}
	require.NoError(t, opstate.Save(repo.InternalDir(), s))

	loaded, err := opstate.Load(repo.InternalDir())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, opstate.KindSync, loaded.Kind)
	assert.Equal(t, []string{"a", "b"}, loaded.RemainingBranches)
}

func TestLoadMissingIsNil(t *testing.T) {
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)

	loaded, err := opstate.Load(repo.InternalDir())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadNotInProgressIsNil(t *testing.T) {
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)

	require.NoError(t, opstate.Save(repo.InternalDir(), &opstate.State{Kind: opstate.KindMove, InProgress: false}))
	loaded, err := opstate.Load(repo.InternalDir())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestAdvanceAndMarkCompleted(t *testing.T) {
	s := &opstate.State{RemainingBranches: []string{"a", "b"}}

	next, ok := s.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", next)
	assert.Equal(t, []string{"b"}, s.RemainingBranches)

	s.MarkCompleted()
	assert.Equal(t, []string{"a"}, s.CompletedBranches)
	assert.Equal(t, "", s.CurrentBranch)
	assert.False(t, s.Done())

	_, ok = s.Advance()
	require.True(t, ok)
	s.MarkCompleted()
	assert.True(t, s.Done())
}

func TestLoadFreshClearsStaleState(t *testing.T) {
	ctx := context.Background()
	tr := gittest.NewTempRepo(t)
	repo := tr.Repo(t)

	require.NoError(t, opstate.Save(repo.InternalDir(), &opstate.State{
		Kind:       opstate.KindRestack,
		InProgress: true,
	}))

	state, wasStale, err := opstate.LoadFresh(ctx, repo)
	require.NoError(t, err)
	assert.True(t, wasStale)
	assert.Nil(t, state)

	loaded, err := opstate.Load(repo.InternalDir())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
