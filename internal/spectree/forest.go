package spectree

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/starford/millwork/internal/apperr"
)

// Forest is the ordered sequence of rooms making up one project's spec.
// It is not safe for concurrent use; callers own one instance per request.
type Forest struct {
	Rooms []*Node
}

// MarshalJSON writes the forest as a JSON array of rooms.
func (f *Forest) MarshalJSON() ([]byte, error) {
	rooms := f.Rooms
	if rooms == nil {
		rooms = []*Node{}
	}
	return json.Marshal(rooms)
}

// UnmarshalJSON reads a JSON array of rooms. null decodes to an empty
// forest; a null entry in the array is an error.
func (f *Forest) UnmarshalJSON(data []byte) error {
	var rooms []*Node
	if err := json.Unmarshal(data, &rooms); err != nil {
		return fmt.Errorf("spectree: decode forest: %w", err)
	}
	if rooms == nil {
		rooms = []*Node{}
	}
	for i, r := range rooms {
		if r == nil {
			return fmt.Errorf("spectree: decode forest: room %d is null", i)
		}
	}
	f.Rooms = rooms
	return nil
}

// Get resolves p to its node.
func (f *Forest) Get(p Path) (*Node, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("spectree: get root: %w", apperr.ErrPathNotFound)
	}
	level := f.Rooms
	var n *Node
	for depth, idx := range p {
		if idx < 0 || idx >= len(level) {
			return nil, fmt.Errorf("spectree: get %s: index %d at depth %d: %w", p, idx, depth, apperr.ErrPathNotFound)
		}
		n = level[idx]
		level = n.Children
	}
	return n, nil
}

// container returns the sibling slice addressed by parent together with the
// parent node (nil for the root).
func (f *Forest) container(parent Path) (*[]*Node, *Node, error) {
	if len(parent) == 0 {
		return &f.Rooms, nil, nil
	}
	n, err := f.Get(parent)
	if err != nil {
		return nil, nil, err
	}
	return &n.Children, n, nil
}

// AddChild appends child under parent and returns the child's path.
// The empty parent appends a room. Appending a cabinet to a run first
// assigns it the run's next sequential name.
func (f *Forest) AddChild(parent Path, child *Node) (Path, error) {
	if child == nil {
		return nil, fmt.Errorf("spectree: add child: nil node")
	}
	siblings, pn, err := f.container(parent)
	if err != nil {
		return nil, err
	}

	want := KindRoom
	if pn != nil {
		k, ok := ChildKind(pn.Type)
		if !ok {
			return nil, fmt.Errorf("spectree: add %s under %s: %w", child.Type, pn.Type, apperr.ErrInvalidChild)
		}
		want = k
	}
	if child.Type != want {
		return nil, fmt.Errorf("spectree: add %s where %s expected: %w", child.Type, want, apperr.ErrInvalidChild)
	}
	if err := checkSubtree(child); err != nil {
		return nil, err
	}

	seen := f.ids()
	var dup string
	walkNode(child, func(n *Node) {
		if n.ID == "" {
			return
		}
		if seen[n.ID] && dup == "" {
			dup = n.ID
		}
		seen[n.ID] = true
	})
	if dup != "" {
		return nil, fmt.Errorf("spectree: add %s: id %s: %w", child.Type, dup, apperr.ErrDuplicateID)
	}

	now := time.Now().UTC()
	walkNode(child, func(n *Node) {
		if n.ID == "" {
			n.ID = NewID(n.Type)
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.Children == nil {
			n.Children = []*Node{}
		}
		if n.Attrs == nil {
			n.Attrs = newAttrs(n.Type)
		}
	})

	if pn != nil && pn.Type == KindRun && child.Type == KindCabinet {
		AutoName(pn, child)
	}

	*siblings = append(*siblings, child)
	return parent.Child(len(*siblings) - 1), nil
}

// checkSubtree enforces the parent/child schema inside a detached subtree.
func checkSubtree(n *Node) error {
	if !n.Type.Valid() {
		return fmt.Errorf("spectree: unknown node type %q: %w", n.Type, apperr.ErrInvalidChild)
	}
	if n.Attrs != nil && n.Attrs.Kind() != n.Type {
		return fmt.Errorf("spectree: %s payload on %s node: %w", n.Attrs.Kind(), n.Type, apperr.ErrInvalidChild)
	}
	if len(n.Children) == 0 {
		return nil
	}
	want, ok := ChildKind(n.Type)
	for _, c := range n.Children {
		if c == nil || !ok || c.Type != want {
			return fmt.Errorf("spectree: child of %s %s: %w", n.Type, n.ID, apperr.ErrInvalidChild)
		}
		if err := checkSubtree(c); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAt removes the node at p with its whole subtree. Later siblings
// shift down one index.
func (f *Forest) DeleteAt(p Path) error {
	if len(p) == 0 {
		return fmt.Errorf("spectree: delete root: %w", apperr.ErrPathNotFound)
	}
	siblings, _, err := f.container(p.Parent())
	if err != nil {
		return err
	}
	idx := p.Last()
	if idx < 0 || idx >= len(*siblings) {
		return fmt.Errorf("spectree: delete %s: %w", p, apperr.ErrPathNotFound)
	}
	*siblings = slices.Delete(*siblings, idx, idx+1)
	return nil
}

// MoveWithinParent moves the child at index from to index to under parent.
func (f *Forest) MoveWithinParent(parent Path, from, to int) error {
	siblings, _, err := f.container(parent)
	if err != nil {
		return err
	}
	n := len(*siblings)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("spectree: move %d->%d under %q: %w", from, to, parent.String(), apperr.ErrPathNotFound)
	}
	if from == to {
		return nil
	}
	moved := (*siblings)[from]
	s := slices.Delete(*siblings, from, from+1)
	*siblings = slices.Insert(s, to, moved)
	return nil
}

// Walk visits every node depth-first in document order.
func (f *Forest) Walk(fn func(p Path, n *Node)) {
	for i, r := range f.Rooms {
		walkPath(Path{i}, r, fn)
	}
}

func walkPath(p Path, n *Node, fn func(Path, *Node)) {
	fn(p, n)
	for i, c := range n.Children {
		walkPath(p.Child(i), c, fn)
	}
}

func walkNode(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		walkNode(c, fn)
	}
}

// FindByID returns the current path of the node with the given id.
func (f *Forest) FindByID(id string) (Path, *Node, bool) {
	var (
		found Path
		node  *Node
	)
	f.Walk(func(p Path, n *Node) {
		if node == nil && n.ID == id {
			found, node = p, n
		}
	})
	return found, node, node != nil
}

// Count returns the number of nodes in the forest.
func (f *Forest) Count() int {
	c := 0
	f.Walk(func(Path, *Node) { c++ })
	return c
}

func (f *Forest) ids() map[string]bool {
	m := make(map[string]bool)
	f.Walk(func(_ Path, n *Node) { m[n.ID] = true })
	return m
}
