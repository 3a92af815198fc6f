package spectree

import (
	"strings"
)

// Lookups used by the assistant tools, which address nodes by name rather
// than by path. Name matching is case-insensitive; an exact match wins over
// a substring match, and earlier document order wins among equals.

// FindRoom returns the room matching name, or the first room when name is empty.
func (f *Forest) FindRoom(name string) (Path, bool) {
	return f.findChild(Path{}, KindRoom, name)
}

// FindLocation returns the location under room matching name, or its first
// location when name is empty.
func (f *Forest) FindLocation(room Path, name string) (Path, bool) {
	return f.findChild(room, KindLocation, name)
}

// FindRun returns the run under location matching name or run type, or its
// first run when name is empty.
func (f *Forest) FindRun(location Path, name string) (Path, bool) {
	siblings, _, err := f.container(location)
	if err != nil {
		return nil, false
	}
	if p, ok := f.findChild(location, KindRun, name); ok {
		return p, true
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i, n := range *siblings {
		if ra := n.Run(); ra != nil && strings.ToLower(ra.RunType) == want {
			return location.Child(i), true
		}
	}
	return nil, false
}

// FindByName searches the whole forest for a node of kind whose name
// matches. An empty kind matches any kind.
func (f *Forest) FindByName(kind Kind, name string) (Path, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil, false
	}
	var exact, partial Path
	f.Walk(func(p Path, n *Node) {
		if kind != "" && n.Type != kind {
			return
		}
		got := strings.ToLower(n.Name)
		switch {
		case got == want && exact == nil:
			exact = p
		case strings.Contains(got, want) && partial == nil:
			partial = p
		}
	})
	if exact != nil {
		return exact, true
	}
	return partial, partial != nil
}

// MostRecentRun returns the most recently created run in the forest. Ties
// go to the later run in document order.
func (f *Forest) MostRecentRun() (Path, bool) {
	var (
		best     Path
		bestNode *Node
	)
	f.Walk(func(p Path, n *Node) {
		if n.Type != KindRun {
			return
		}
		if bestNode == nil || !n.CreatedAt.Before(bestNode.CreatedAt) {
			best, bestNode = p, n
		}
	})
	return best, bestNode != nil
}

func (f *Forest) findChild(parent Path, kind Kind, name string) (Path, bool) {
	siblings, _, err := f.container(parent)
	if err != nil {
		return nil, false
	}
	want := strings.ToLower(strings.TrimSpace(name))
	partial := -1
	for i, n := range *siblings {
		if n.Type != kind {
			continue
		}
		if want == "" {
			return parent.Child(i), true
		}
		got := strings.ToLower(n.Name)
		if got == want {
			return parent.Child(i), true
		}
		if partial < 0 && strings.Contains(got, want) {
			partial = i
		}
	}
	if partial >= 0 {
		return parent.Child(partial), true
	}
	return nil, false
}
