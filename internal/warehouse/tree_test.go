package warehouse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

// fixture: area 10 -> location 1 -> (2, 3); 3 -> 4
func fixtureLocations() []Location {
	return []Location{
		{ID: 1, AreaID: ptr(10), Reference: "A-01"},
		{ID: 2, ParentID: ptr(1), Reference: "A-01-1"},
		{ID: 3, ParentID: ptr(1), Reference: "A-01-2"},
		{ID: 4, ParentID: ptr(3), Reference: "A-01-2-a"},
	}
}

func TestTreeAncestors(t *testing.T) {
	tree := NewTree(fixtureLocations())

	path, err := tree.Ancestors(4)
	require.NoError(t, err)
	require.Len(t, path, 2)
	require.Equal(t, int64(3), path[0].ID)
	require.Equal(t, int64(1), path[1].ID)

	path, err = tree.Ancestors(1)
	require.NoError(t, err)
	require.Empty(t, path)

	_, err = tree.Ancestors(99)
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestTreeSubtree(t *testing.T) {
	tree := NewTree(fixtureLocations())

	ids, err := tree.SubtreeIDs(1)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 2, 3, 4}, ids)

	ids, err = tree.SubtreeIDs(3)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{3, 4}, ids)

	descendants, err := tree.Descendants(2)
	require.NoError(t, err)
	require.Empty(t, descendants)
}

func TestTreeRootResolvesAreaLink(t *testing.T) {
	tree := NewTree(fixtureLocations())

	root, err := tree.Root(4)
	require.NoError(t, err)
	require.Equal(t, int64(1), root.ID)
	require.NotNil(t, root.AreaID)
	require.Equal(t, int64(10), *root.AreaID)
}

func TestTreeRootOrphan(t *testing.T) {
	tree := NewTree([]Location{{ID: 7}})

	_, err := tree.Root(7)
	require.ErrorIs(t, err, ErrOrphanLocation)
}

func TestTreeDetectsCycle(t *testing.T) {
	tree := NewTree([]Location{
		{ID: 1, ParentID: ptr(2)},
		{ID: 2, ParentID: ptr(1)},
	})

	_, err := tree.Ancestors(1)
	require.Error(t, err)
}
