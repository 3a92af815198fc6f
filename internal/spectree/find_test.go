package spectree

import (
	"testing"
	"time"
)

func findTree(t *testing.T) *Forest {
	t.Helper()
	f := &Forest{}
	kitchen := mustAdd(t, f, Path{}, mustNode(t, KindRoom, "Main Kitchen", nil))
	mustAdd(t, f, Path{}, mustNode(t, KindRoom, "Kitchen", nil))
	loc := mustAdd(t, f, kitchen, mustNode(t, KindLocation, "Sink Wall", nil))
	mustAdd(t, f, kitchen, mustNode(t, KindLocation, "Island", nil))
	mustAdd(t, f, loc, mustNode(t, KindRun, "Lower cabinets", &RunAttrs{RunType: "base"}))
	mustAdd(t, f, loc, mustNode(t, KindRun, "Uppers", &RunAttrs{RunType: "wall"}))
	return f
}

func TestFindRoom(t *testing.T) {
	f := findTree(t)
	cases := map[string]string{
		"":             "0",
		"kitchen":      "1",
		"main":         "0",
		"MAIN KITCHEN": "0",
	}
	for name, want := range cases {
		p, ok := f.FindRoom(name)
		if !ok || p.String() != want {
			t.Errorf("FindRoom(%q) = %v, %v; want %s", name, p, ok, want)
		}
	}
	if _, ok := f.FindRoom("garage"); ok {
		t.Error("found nonexistent room")
	}
	if _, ok := (&Forest{}).FindRoom(""); ok {
		t.Error("found room in empty forest")
	}
}

func TestFindLocationAndRun(t *testing.T) {
	f := findTree(t)
	loc, ok := f.FindLocation(Path{0}, "sink")
	if !ok || loc.String() != "0.children.0" {
		t.Fatalf("FindLocation = %v, %v", loc, ok)
	}
	if p, ok := f.FindLocation(Path{0}, ""); !ok || p.Last() != 0 {
		t.Errorf("first location = %v", p)
	}
	if _, ok := f.FindLocation(Path{7}, ""); ok {
		t.Error("found location under missing room")
	}

	run, ok := f.FindRun(loc, "upper")
	if !ok || run.Last() != 1 {
		t.Errorf("FindRun by name = %v, %v", run, ok)
	}
	run, ok = f.FindRun(loc, "base")
	if !ok || run.Last() != 0 {
		t.Errorf("FindRun by type = %v, %v", run, ok)
	}
	if _, ok := f.FindRun(loc, "tall"); ok {
		t.Error("found tall run")
	}
}

func TestFindByName(t *testing.T) {
	f := findTree(t)
	p, ok := f.FindByName(KindLocation, "island")
	if !ok || p.String() != "0.children.1" {
		t.Errorf("FindByName = %v, %v", p, ok)
	}
	p, ok = f.FindByName("", "uppers")
	if !ok || p.String() != "0.children.0.children.1" {
		t.Errorf("FindByName any = %v, %v", p, ok)
	}
	// exact match beats an earlier substring match
	p, ok = f.FindByName(KindRoom, "kitchen")
	if !ok || p.String() != "1" {
		t.Errorf("exact = %v", p)
	}
	if _, ok := f.FindByName(KindRun, ""); ok {
		t.Error("empty name matched")
	}
}

func TestMostRecentRun(t *testing.T) {
	f := findTree(t)
	first, _ := f.Get(Path{0, 0, 0})
	first.CreatedAt = time.Now().Add(time.Hour)
	p, ok := f.MostRecentRun()
	if !ok || !p.Equal(Path{0, 0, 0}) {
		t.Errorf("MostRecentRun = %v, %v", p, ok)
	}
	if _, ok := (&Forest{}).MostRecentRun(); ok {
		t.Error("found run in empty forest")
	}
}
