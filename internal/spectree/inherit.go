package spectree

import (
	"fmt"

	"github.com/starford/millwork/internal/apperr"
	"github.com/starford/millwork/internal/pricing"
)

// Pricing attribute keys as they appear in node JSON.
const (
	FieldCabinetLevel     = "cabinet_level"
	FieldMaterialCategory = "material_category"
	FieldFinishOption     = "finish_option"
)

// SourceDefault is reported by InheritanceSource when no node on the path
// sets the field.
const SourceDefault = "default"

// Effective fills every attribute own leaves unset from parent.
func Effective(parent pricing.Triple, own Pricing) pricing.Triple {
	t := parent
	if own.CabinetLevel != 0 {
		t.Level = own.CabinetLevel
	}
	if own.MaterialCategory != "" {
		t.Material = own.MaterialCategory
	}
	if own.FinishOption != "" {
		t.Finish = own.FinishOption
	}
	return t
}

// EffectiveAt returns the triple used to price the node at p. Nodes below a
// run use their run's triple.
func EffectiveAt(f *Forest, p Path) (pricing.Triple, error) {
	if _, err := f.Get(p); err != nil {
		return pricing.Triple{}, err
	}
	t := pricing.DefaultTriple
	level := f.Rooms
	for _, idx := range p {
		n := level[idx]
		if pa := n.PricingAttrs(); pa != nil {
			t = Effective(t, *pa)
		}
		level = n.Children
	}
	return t, nil
}

// InheritanceSource reports where the node at p gets field from: "" when
// the node sets it itself, else the level of the nearest ancestor that
// sets it ("room", "location" or "run"), else SourceDefault.
func InheritanceSource(f *Forest, p Path, field string) (string, error) {
	if field != FieldCabinetLevel && field != FieldMaterialCategory && field != FieldFinishOption {
		return "", fmt.Errorf("spectree: %q is not a pricing attribute: %w", field, apperr.ErrInvalidInput)
	}
	if _, err := f.Get(p); err != nil {
		return "", err
	}

	chain := make([]*Node, 0, len(p))
	level := f.Rooms
	for _, idx := range p {
		n := level[idx]
		chain = append(chain, n)
		level = n.Children
	}
	for i := len(chain) - 1; i >= 0; i-- {
		pa := chain[i].PricingAttrs()
		if pa == nil || !isSet(*pa, field) {
			continue
		}
		if i == len(chain)-1 {
			return "", nil
		}
		return sourceLabel(chain[i].Type), nil
	}
	return SourceDefault, nil
}

func sourceLabel(k Kind) string {
	switch k {
	case KindLocation:
		return "location"
	case KindRun:
		return "run"
	}
	return string(k)
}

func isSet(p Pricing, field string) bool {
	switch field {
	case FieldCabinetLevel:
		return p.CabinetLevel != 0
	case FieldMaterialCategory:
		return p.MaterialCategory != ""
	case FieldFinishOption:
		return p.FinishOption != ""
	}
	return false
}
