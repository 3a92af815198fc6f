package spectree

import (
	"errors"
	"testing"

	"github.com/starford/millwork/internal/apperr"
)

func TestParsePath_RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "3", "0.children.1", "2.children.0.children.4.children.10"} {
		p, err := ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", s, err)
		}
		if got := p.String(); got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}

func TestParsePath_Root(t *testing.T) {
	p, err := ParsePath("  ")
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsRoot() || p.String() != "" {
		t.Errorf("root path = %v", p)
	}
}

func TestParsePath_Malformed(t *testing.T) {
	for _, s := range []string{
		"a", "-1", "0.children", "0.kids.1", "children.0", "0..1", "0.children.x", "1.5",
	} {
		_, err := ParsePath(s)
		if !errors.Is(err, apperr.ErrPathNotFound) {
			t.Errorf("ParsePath(%q) err = %v, want ErrPathNotFound", s, err)
		}
	}
}

func TestPath_Navigation(t *testing.T) {
	p := Path{1, 2, 3}
	if got := p.Parent().String(); got != "1.children.2" {
		t.Errorf("Parent = %q", got)
	}
	c := p.Child(7)
	if c.String() != "1.children.2.children.3.children.7" || c.Last() != 7 || c.Depth() != 4 {
		t.Errorf("Child = %v", c)
	}
	if p.String() != "1.children.2.children.3" {
		t.Error("Child mutated receiver")
	}
	if (Path{}).Last() != -1 || !(Path{0}).Parent().IsRoot() {
		t.Error("root navigation")
	}
	if !p.Equal(Path{1, 2, 3}) || p.Equal(Path{1, 2}) {
		t.Error("Equal")
	}
}
