package warehouse

import (
	"fmt"
	"sort"
)

// Tree is an in-memory index over location rows supporting O(depth) ancestor
// walks and O(subtree) descendant walks.
type Tree struct {
	nodes    map[int64]Location
	children map[int64][]int64
}

// NewTree indexes the given locations. Children are ordered by id so
// traversal output is deterministic.
func NewTree(locations []Location) *Tree {
	t := &Tree{
		nodes:    make(map[int64]Location, len(locations)),
		children: make(map[int64][]int64),
	}
	for _, loc := range locations {
		t.nodes[loc.ID] = loc
		if loc.ParentID != nil {
			t.children[*loc.ParentID] = append(t.children[*loc.ParentID], loc.ID)
		}
	}
	for parent := range t.children {
		ids := t.children[parent]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return t
}

// Get returns the indexed location.
func (t *Tree) Get(id int64) (Location, error) {
	loc, ok := t.nodes[id]
	if !ok {
		return Location{}, ErrLocationNotFound
	}
	return loc, nil
}

// Ancestors returns the path from the location's parent up to the root.
func (t *Tree) Ancestors(id int64) ([]Location, error) {
	loc, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	var path []Location
	seen := map[int64]bool{loc.ID: true}
	for loc.ParentID != nil {
		parent, ok := t.nodes[*loc.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: parent %d of location %d", ErrLocationNotFound, *loc.ParentID, loc.ID)
		}
		if seen[parent.ID] {
			return nil, fmt.Errorf("warehouse: cycle detected at location %d", parent.ID)
		}
		seen[parent.ID] = true
		path = append(path, parent)
		loc = parent
	}
	return path, nil
}

// Root returns the root-most ancestor, the node carrying the area link.
func (t *Tree) Root(id int64) (Location, error) {
	loc, err := t.Get(id)
	if err != nil {
		return Location{}, err
	}
	if loc.IsRoot() {
		if loc.AreaID == nil {
			return Location{}, ErrOrphanLocation
		}
		return loc, nil
	}
	path, err := t.Ancestors(id)
	if err != nil {
		return Location{}, err
	}
	root := path[len(path)-1]
	if root.AreaID == nil {
		return Location{}, ErrOrphanLocation
	}
	return root, nil
}

// Subtree returns the location and all its descendants, depth first.
func (t *Tree) Subtree(id int64) ([]Location, error) {
	root, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	out := []Location{root}
	stack := append([]int64(nil), t.children[id]...)
	for len(stack) > 0 {
		next := stack[0]
		stack = stack[1:]
		node, ok := t.nodes[next]
		if !ok {
			continue
		}
		out = append(out, node)
		stack = append(stack, t.children[next]...)
	}
	return out, nil
}

// Descendants returns the subtree without the location itself.
func (t *Tree) Descendants(id int64) ([]Location, error) {
	subtree, err := t.Subtree(id)
	if err != nil {
		return nil, err
	}
	return subtree[1:], nil
}

// SubtreeIDs returns the ids of the location and all descendants.
func (t *Tree) SubtreeIDs(id int64) ([]int64, error) {
	subtree, err := t.Subtree(id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(subtree))
	for i, loc := range subtree {
		ids[i] = loc.ID
	}
	return ids, nil
}
