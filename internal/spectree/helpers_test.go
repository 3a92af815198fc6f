package spectree

import (
	"testing"

	"github.com/starford/millwork/internal/pricing"
)

// mustNode builds a node or fails the test.
func mustNode(t *testing.T, kind Kind, name string, attrs Attributes) *Node {
	t.Helper()
	n, err := NewNode(kind, name, attrs, SourceUser)
	if err != nil {
		t.Fatalf("NewNode(%s, %q): %v", kind, name, err)
	}
	return n
}

// mustAdd appends child under parent or fails the test.
func mustAdd(t *testing.T, f *Forest, parent Path, child *Node) Path {
	t.Helper()
	p, err := f.AddChild(parent, child)
	if err != nil {
		t.Fatalf("AddChild(%q, %s): %v", parent.String(), child.Type, err)
	}
	return p
}

// kitchen builds room > location > base run and returns the run path.
func kitchen(t *testing.T, f *Forest, runType string) Path {
	t.Helper()
	room := mustAdd(t, f, Path{}, mustNode(t, KindRoom, "Kitchen", &RoomAttrs{RoomType: "kitchen"}))
	loc := mustAdd(t, f, room, mustNode(t, KindLocation, "Sink Wall", nil))
	return mustAdd(t, f, loc, mustNode(t, KindRun, "Lower", &RunAttrs{RunType: runType}))
}

func addCabinet(t *testing.T, f *Forest, run Path, typed string, qty int) Path {
	t.Helper()
	return mustAdd(t, f, run, mustNode(t, KindCabinet, typed, &CabinetAttrs{Quantity: qty}))
}

var defaultTable = pricing.DefaultTable()

func defaultUnit(t *testing.T) float64 {
	t.Helper()
	u, err := defaultTable.UnitPricePerLinearFoot(pricing.DefaultTriple)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
