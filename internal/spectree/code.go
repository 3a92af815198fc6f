package spectree

import (
	"github.com/starford/millwork/internal/parser"
)

// FieldSet names cabinet fields the user set explicitly.
type FieldSet map[string]bool

// ApplyCode fills cabinet type, length and the type's default depth and
// height from a shorthand code, skipping any field in overridden. It
// reports whether the code was recognised; an unrecognised code changes
// nothing.
func ApplyCode(cab *CabinetAttrs, code string, overridden FieldSet) bool {
	inf := parser.ParseCode(code)
	if !inf.Matched() {
		return false
	}
	if !overridden["cabinet_type"] {
		cab.CabinetType = inf.Type
	}
	if !overridden["length_inches"] {
		cab.LengthInches = inf.Width
	}
	if d, ok := parser.Defaults(inf.Type); ok {
		if !overridden["depth_inches"] {
			cab.DepthInches = d.Depth
		}
		if !overridden["height_inches"] {
			cab.HeightInches = d.Height
		}
	}
	return true
}

// presentFields lists the code-derivable fields a cabinet already carries.
func presentFields(cab *CabinetAttrs) FieldSet {
	return FieldSet{
		"cabinet_type":  cab.CabinetType != "",
		"length_inches": cab.LengthInches > 0,
		"depth_inches":  cab.DepthInches > 0,
		"height_inches": cab.HeightInches > 0,
	}
}
