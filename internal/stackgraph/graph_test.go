package stackgraph_test

import (
	"context"
	"testing"

	"github.com/diamond-stack/diamond/internal/stackgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a trivial in-memory parent/children table used to exercise
// the traversal algorithms without a real repository.
type fakeStore struct {
	parent   map[string]string
	children map[string][]string
}

func newFakeStore(edges map[string]string) *fakeStore {
	fs := &fakeStore{parent: edges, children: map[string][]string{}}
	for child, parent := range edges {
		fs.children[parent] = append(fs.children[parent], child)
	}
	return fs
}

func (fs *fakeStore) getParent(_ context.Context, branch string) (string, bool, error) {
	p, ok := fs.parent[branch]
	return p, ok, nil
}

func (fs *fakeStore) getChildren(_ context.Context, branch string) ([]string, error) {
	return fs.children[branch], nil
}

func TestAncestorsFromTrunkToBranch(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore(map[string]string{
		"a": "main",
		"b": "a",
		"c": "b",
	})
	ancestors, err := stackgraph.Ancestors(ctx, fs.getParent, "main", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ancestors)
}

func TestAncestorsDetectsCycle(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore(map[string]string{
		"a": "b",
		"b": "a",
	})
	_, err := stackgraph.Ancestors(ctx, fs.getParent, "main", "a")
	var cycleErr *stackgraph.ErrCycle
	require.ErrorAs(t, err, &cycleErr)
}

func TestDescendantsExcludesSelfAndIsSorted(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore(map[string]string{
		"b": "a",
		"c": "a",
		"d": "c",
	})
	descendants, err := stackgraph.Descendants(ctx, fs.getChildren, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, descendants)
	assert.NotContains(t, descendants, "a")
}

func TestDescendantsDetectsCycle(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{children: map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}}
	_, err := stackgraph.Descendants(ctx, fs.getChildren, "a")
	var cycleErr *stackgraph.ErrCycle
	require.ErrorAs(t, err, &cycleErr)
}

func TestAncestorsAndDescendantsDisjoint(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore(map[string]string{
		"a": "main",
		"b": "a",
		"c": "a",
		"d": "b",
	})
	ancestors, err := stackgraph.Ancestors(ctx, fs.getParent, "main", "d")
	require.NoError(t, err)
	descendants, err := stackgraph.Descendants(ctx, fs.getChildren, "d")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, n := range ancestors {
		seen[n] = true
	}
	for _, n := range descendants {
		assert.False(t, seen[n], "branch %q appears in both ancestors and descendants of itself", n)
	}
}

func TestCollectBranchesDFSIsInclusiveOfRoots(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore(map[string]string{
		"a": "main",
		"b": "main",
	})
	all, err := stackgraph.CollectBranchesDFS(ctx, fs.getChildren, []string{"main"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main", "a", "b"}, all)
}

func TestComputeTreePrefixMarksLastChild(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore(map[string]string{
		"a": "main",
		"b": "main",
		"c": "a",
	})

	prefixB, err := stackgraph.ComputeTreePrefix(ctx, fs.getParent, fs.getChildren, "main", "b")
	require.NoError(t, err)
	assert.Equal(t, "└─", prefixB)

	prefixC, err := stackgraph.ComputeTreePrefix(ctx, fs.getParent, fs.getChildren, "main", "c")
	require.NoError(t, err)
	assert.Contains(t, prefixC, "└─")

	prefixRoot, err := stackgraph.ComputeTreePrefix(ctx, fs.getParent, fs.getChildren, "main", "main")
	require.NoError(t, err)
	assert.Equal(t, "", prefixRoot)
}
