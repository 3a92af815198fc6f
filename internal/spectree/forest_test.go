package spectree

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/starford/millwork/internal/apperr"
)

func TestAddChild_ReturnsResolvablePath(t *testing.T) {
	f := &Forest{}
	run := kitchen(t, f, "base")
	if run.String() != "0.children.0.children.0" {
		t.Fatalf("run path = %q", run)
	}
	cab := addCabinet(t, f, run, "B24", 1)

	n, err := f.Get(cab)
	if err != nil {
		t.Fatal(err)
	}
	if n.Type != KindCabinet || n.Name != "B1" {
		t.Errorf("got %s %q", n.Type, n.Name)
	}
}

func TestAddChild_SchemaEnforced(t *testing.T) {
	f := &Forest{}
	run := kitchen(t, f, "base")

	cases := []struct {
		parent Path
		kind   Kind
	}{
		{Path{}, KindCabinet},
		{Path{0}, KindCabinet},
		{Path{0}, KindRoom},
		{run, KindSection},
	}
	before := f.Count()
	for _, c := range cases {
		_, err := f.AddChild(c.parent, mustNode(t, c.kind, "x", nil))
		if !errors.Is(err, apperr.ErrInvalidChild) {
			t.Errorf("add %s under %q: err = %v, want ErrInvalidChild", c.kind, c.parent.String(), err)
		}
	}
	if f.Count() != before {
		t.Errorf("forest changed: %d -> %d nodes", before, f.Count())
	}
}

func TestAddChild_HardwareHasNoChildren(t *testing.T) {
	f := &Forest{}
	run := kitchen(t, f, "base")
	cab := addCabinet(t, f, run, "B24", 1)
	sec := mustAdd(t, f, cab, mustNode(t, KindSection, "Drawer bank", nil))
	content := mustAdd(t, f, sec, mustNode(t, KindContent, "Drawer", nil))
	hw := mustAdd(t, f, content, mustNode(t, KindHardware, "Slide", &HardwareAttrs{SKU: "BL-563", Quantity: 2}))

	_, err := f.AddChild(hw, mustNode(t, KindHardware, "Screw", nil))
	if !errors.Is(err, apperr.ErrInvalidChild) {
		t.Errorf("err = %v, want ErrInvalidChild", err)
	}
}

func TestAddChild_DuplicateID(t *testing.T) {
	f := &Forest{}
	room := mustAdd(t, f, Path{}, mustNode(t, KindRoom, "Kitchen", nil))
	existing, _ := f.Get(room)

	dup := mustNode(t, KindRoom, "Again", nil)
	dup.ID = existing.ID
	if _, err := f.AddChild(Path{}, dup); !errors.Is(err, apperr.ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}

	// duplicate hidden inside the subtree being added
	loc := mustNode(t, KindLocation, "L", nil)
	run1 := mustNode(t, KindRun, "R1", nil)
	run2 := mustNode(t, KindRun, "R2", nil)
	run2.ID = run1.ID
	loc.Children = []*Node{run1, run2}
	if _, err := f.AddChild(room, loc); !errors.Is(err, apperr.ErrDuplicateID) {
		t.Errorf("subtree err = %v, want ErrDuplicateID", err)
	}
	if len(f.Rooms) != 1 || len(f.Rooms[0].Children) != 0 {
		t.Error("forest mutated after failed add")
	}
}

func TestAddChild_AssignsMissingIdentity(t *testing.T) {
	f := &Forest{}
	n := &Node{Type: KindRoom, Name: "Bath"}
	p := mustAdd(t, f, Path{}, n)
	got, _ := f.Get(p)
	if !strings.HasPrefix(got.ID, "room_") || len(got.ID) != len("room_")+8 {
		t.Errorf("id = %q", got.ID)
	}
	if got.CreatedAt.IsZero() || got.Children == nil || got.Attrs == nil {
		t.Errorf("identity not filled: %+v", got)
	}
}

func TestAddChild_ParentNotFound(t *testing.T) {
	f := &Forest{}
	_, err := f.AddChild(Path{4}, mustNode(t, KindLocation, "L", nil))
	if !errors.Is(err, apperr.ErrPathNotFound) {
		t.Errorf("err = %v, want ErrPathNotFound", err)
	}
}

func TestGet_OutOfRange(t *testing.T) {
	f := &Forest{}
	kitchen(t, f, "base")
	for _, p := range []Path{{}, {1}, {0, 1}, {0, 0, 0, 0}, {-1}} {
		if _, err := f.Get(p); !errors.Is(err, apperr.ErrPathNotFound) {
			t.Errorf("Get(%v) err = %v", p, err)
		}
	}
}

func TestDeleteAt_CompactsSiblings(t *testing.T) {
	f := &Forest{}
	run := kitchen(t, f, "base")
	addCabinet(t, f, run, "", 1)
	b2 := addCabinet(t, f, run, "", 1)
	addCabinet(t, f, run, "", 1)

	third, _ := f.Get(run.Child(2))
	thirdID := third.ID

	if err := f.DeleteAt(b2); err != nil {
		t.Fatal(err)
	}
	shifted, err := f.Get(b2)
	if err != nil {
		t.Fatal(err)
	}
	if shifted.ID != thirdID {
		t.Errorf("index 1 now %s, want %s", shifted.ID, thirdID)
	}
	if _, err := f.Get(run.Child(2)); !errors.Is(err, apperr.ErrPathNotFound) {
		t.Errorf("old last index still resolves: %v", err)
	}
	p, _, ok := f.FindByID(thirdID)
	if !ok || !p.Equal(run.Child(1)) {
		t.Errorf("FindByID = %v, %v", p, ok)
	}
}

func TestDeleteAt_Errors(t *testing.T) {
	f := &Forest{}
	kitchen(t, f, "base")
	before := f.Count()
	for _, p := range []Path{{}, {3}, {0, 0, 5}, {0, 9, 0}} {
		if err := f.DeleteAt(p); !errors.Is(err, apperr.ErrPathNotFound) {
			t.Errorf("DeleteAt(%v) err = %v", p, err)
		}
	}
	if f.Count() != before {
		t.Error("forest changed after failed deletes")
	}
}

func TestDeleteAt_Room(t *testing.T) {
	f := &Forest{}
	kitchen(t, f, "base")
	mustAdd(t, f, Path{}, mustNode(t, KindRoom, "Pantry", nil))
	if err := f.DeleteAt(Path{0}); err != nil {
		t.Fatal(err)
	}
	if len(f.Rooms) != 1 || f.Rooms[0].Name != "Pantry" {
		t.Errorf("rooms = %v", f.Rooms)
	}
}

func TestMoveWithinParent(t *testing.T) {
	f := &Forest{}
	run := kitchen(t, f, "base")
	for i := 0; i < 4; i++ {
		addCabinet(t, f, run, "", 1)
	}
	names := func() string {
		n, _ := f.Get(run)
		var out []string
		for _, c := range n.Children {
			out = append(out, c.Name)
		}
		return strings.Join(out, ",")
	}

	if err := f.MoveWithinParent(run, 0, 2); err != nil {
		t.Fatal(err)
	}
	if got := names(); got != "B2,B3,B1,B4" {
		t.Errorf("after 0->2: %s", got)
	}
	if err := f.MoveWithinParent(run, 3, 0); err != nil {
		t.Fatal(err)
	}
	if got := names(); got != "B4,B2,B3,B1" {
		t.Errorf("after 3->0: %s", got)
	}
	if err := f.MoveWithinParent(run, 0, 4); !errors.Is(err, apperr.ErrPathNotFound) {
		t.Errorf("out of range err = %v", err)
	}
	if got := names(); got != "B4,B2,B3,B1" {
		t.Errorf("failed move changed order: %s", got)
	}
}

func TestMoveWithinParent_Rooms(t *testing.T) {
	f := &Forest{}
	mustAdd(t, f, Path{}, mustNode(t, KindRoom, "A", nil))
	mustAdd(t, f, Path{}, mustNode(t, KindRoom, "B", nil))
	if err := f.MoveWithinParent(Path{}, 1, 0); err != nil {
		t.Fatal(err)
	}
	if f.Rooms[0].Name != "B" {
		t.Errorf("first room = %s", f.Rooms[0].Name)
	}
}

func TestForest_JSONRoundTrip(t *testing.T) {
	f := &Forest{}
	run := kitchen(t, f, "base")
	addCabinet(t, f, run, "W3012", 2)
	NewCalculator(defaultTable).Recalculate(f)

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var back Forest
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	cab, err := back.Get(run.Child(0))
	if err != nil {
		t.Fatal(err)
	}
	a := cab.Cabinet()
	if a == nil || a.Code != "W3012" || a.LengthInches != 30 || a.Quantity != 2 || a.CabinetType != "wall" {
		t.Errorf("cabinet = %+v", a)
	}
	again, _ := json.Marshal(&back)
	if string(again) != string(data) {
		t.Errorf("re-encoded forest differs\n%s\n%s", data, again)
	}
}

func TestForest_UnmarshalNullAndEmpty(t *testing.T) {
	var f Forest
	if err := json.Unmarshal([]byte("null"), &f); err != nil {
		t.Fatal(err)
	}
	if f.Rooms == nil || len(f.Rooms) != 0 {
		t.Errorf("rooms = %v", f.Rooms)
	}
	data, _ := json.Marshal(&Forest{})
	if string(data) != "[]" {
		t.Errorf("empty forest = %s", data)
	}
}

func TestForest_UnmarshalRejectsNullNodes(t *testing.T) {
	for _, blob := range []string{
		`[null]`,
		`[{"id":"room_1","type":"room","name":"K","children":[null]}]`,
		`[{"id":"room_1","type":"room","name":"K","children":[{"id":"loc_1","type":"room_location","name":"W","children":[null]}]}]`,
	} {
		var f Forest
		if err := json.Unmarshal([]byte(blob), &f); err == nil {
			t.Errorf("decode %s: expected error", blob)
		}
	}

	var f Forest
	if err := json.Unmarshal([]byte(`[{"id":"room_1","type":"room","name":"K","children":[]}]`), &f); err != nil {
		t.Fatal(err)
	}
	// A decoded forest must survive a full walk.
	if f.Count() != 1 {
		t.Errorf("count = %d", f.Count())
	}
}
