package spectree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/millwork/internal/apperr"
)

const childrenToken = "children"

// Path addresses a node by its index at each level, root room first.
// The empty Path is the forest root itself and is only meaningful as a
// parent. Paths are positional: a delete or move that shifts earlier
// siblings invalidates them, so re-resolve by id (Forest.FindByID) across
// mutations.
type Path []int

// ParsePath parses the dot form "0.children.1.children.2".
// The empty string parses to the root.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	if len(parts)%2 == 0 {
		return nil, fmt.Errorf("spectree: parse path %q: %w", s, apperr.ErrPathNotFound)
	}
	p := make(Path, 0, len(parts)/2+1)
	for i, tok := range parts {
		if i%2 == 1 {
			if tok != childrenToken {
				return nil, fmt.Errorf("spectree: parse path %q: unexpected %q: %w", s, tok, apperr.ErrPathNotFound)
			}
			continue
		}
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("spectree: parse path %q: bad index %q: %w", s, tok, apperr.ErrPathNotFound)
		}
		p = append(p, idx)
	}
	return p, nil
}

// String renders the dot form. The root renders as "".
func (p Path) String() string {
	var b strings.Builder
	for i, idx := range p {
		if i > 0 {
			b.WriteString("." + childrenToken + ".")
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// Parent returns the path one level up. The parent of a room is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return append(Path{}, p[:len(p)-1]...)
}

// Child returns the path of the i-th child of p.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// Last returns the index within the parent, or -1 for the root.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Depth is 1 for rooms, 2 for locations and so on.
func (p Path) Depth() int { return len(p) }

// IsRoot reports whether p addresses the forest root.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Equal reports whether both paths address the same position.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}
