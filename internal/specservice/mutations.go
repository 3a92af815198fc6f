package specservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/millwork/internal/apperr"
	"github.com/starford/millwork/internal/parser"
	"github.com/starford/millwork/internal/pricing"
	"github.com/starford/millwork/internal/spectree"
)

// AddNode appends node under parentPath ("" for a new room).
func (s *Service) AddNode(_ context.Context, id, parentPath string, node *spectree.Node, ifMatch string) (*Change, error) {
	if node == nil {
		return nil, fmt.Errorf("specservice: add node: %w: node is required", apperr.ErrInvalidInput)
	}
	if node.Attrs != nil {
		if err := node.Attrs.Validate(); err != nil {
			return nil, fmt.Errorf("specservice: add %s: %w: %w", node.Type, apperr.ErrInvalidInput, err)
		}
	}
	if node.Source == "" {
		node.Source = spectree.SourceUser
	}
	parent, err := spectree.ParsePath(parentPath)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "add_node", func(f *spectree.Forest) (*Change, error) {
		p, err := f.AddChild(parent, node)
		if err != nil {
			return nil, err
		}
		return &Change{Path: p.String()}, nil
	})
}

// UpdateNode merges fields into the node at path. Dimension fields that
// are non-positive or unparseable are dropped and listed in Change.Rejected.
func (s *Service) UpdateNode(_ context.Context, id, path string, fields map[string]any, ifMatch string) (*Change, error) {
	p, err := spectree.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "update_node", func(f *spectree.Forest) (*Change, error) {
		rejected, err := f.UpdateFields(p, fields)
		if err != nil {
			return nil, err
		}
		return &Change{Path: p.String(), Rejected: rejected}, nil
	})
}

// DeleteNode removes the node at path with its subtree.
func (s *Service) DeleteNode(_ context.Context, id, path string, ifMatch string) (*Change, error) {
	p, err := spectree.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "delete_node", func(f *spectree.Forest) (*Change, error) {
		return nil, f.DeleteAt(p)
	})
}

// MoveNode reorders the children of parentPath.
func (s *Service) MoveNode(_ context.Context, id, parentPath string, from, to int, ifMatch string) (*Change, error) {
	parent, err := spectree.ParsePath(parentPath)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "move_node", func(f *spectree.Forest) (*Change, error) {
		if err := f.MoveWithinParent(parent, from, to); err != nil {
			return nil, err
		}
		return &Change{Path: parent.Child(to).String()}, nil
	})
}

// CabinetInput describes a cabinet as typed by a user or assistant.
type CabinetInput struct {
	// Code is a shorthand cabinet code such as B24 or W3012.
	Code string `json:"code,omitempty"`
	// Name is free text; code-shaped text is treated as a code.
	Name string `json:"name,omitempty"`
	// Width is raw width text ("24", `30"`, "2ft"). Overrides the code's width.
	Width string `json:"width,omitempty"`
	// Length is the width in inches when Width is empty.
	Length   float64 `json:"length_inches,omitempty"`
	Quantity int     `json:"quantity,omitempty"`
	Depth    float64 `json:"depth_inches,omitempty"`
	Height   float64 `json:"height_inches,omitempty"`
	Type     string  `json:"cabinet_type,omitempty"`
}

// cabinetNode builds a cabinet node; naming and code inference happen when
// it is appended to a run.
func cabinetNode(in CabinetInput, src spectree.Source) (*spectree.Node, error) {
	attrs := &spectree.CabinetAttrs{
		CabinetType:  strings.TrimSpace(in.Type),
		DepthInches:  in.Depth,
		HeightInches: in.Height,
		Quantity:     in.Quantity,
		Code:         strings.ToUpper(strings.TrimSpace(in.Code)),
	}
	if in.Width != "" {
		if w, ok := parser.ParseWidth(in.Width); ok {
			attrs.LengthInches = w
		}
	} else if in.Length > 0 {
		attrs.LengthInches = in.Length
	}
	if attrs.Quantity < 0 {
		attrs.Quantity = 0
	}
	typed := in.Name
	if typed == "" {
		typed = in.Code
	}
	return spectree.NewNode(spectree.KindCabinet, typed, attrs, src)
}

// AddCabinet appends a cabinet to the run at runPath.
func (s *Service) AddCabinet(_ context.Context, id, runPath string, in CabinetInput, ifMatch string) (*Change, error) {
	run, err := spectree.ParsePath(runPath)
	if err != nil {
		return nil, err
	}
	node, err := cabinetNode(in, spectree.SourceUser)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "add_cabinet", func(f *spectree.Forest) (*Change, error) {
		p, err := f.AddChild(run, node)
		if err != nil {
			return nil, err
		}
		return &Change{Path: p.String()}, nil
	})
}

// PricingInput sets or clears pricing attributes. Nil fields are left
// alone; an empty value clears the attribute so it inherits again.
type PricingInput struct {
	CabinetLevel     *pricing.Level `json:"cabinet_level,omitempty"`
	MaterialCategory *string        `json:"material_category,omitempty"`
	FinishOption     *string        `json:"finish_option,omitempty"`
}

func (in PricingInput) fields() map[string]any {
	m := map[string]any{}
	if in.CabinetLevel != nil {
		m[spectree.FieldCabinetLevel] = int(*in.CabinetLevel)
	}
	if in.MaterialCategory != nil {
		m[spectree.FieldMaterialCategory] = *in.MaterialCategory
	}
	if in.FinishOption != nil {
		m[spectree.FieldFinishOption] = *in.FinishOption
	}
	return m
}

// UpdatePricing changes the pricing attributes of a room, location or run.
func (s *Service) UpdatePricing(_ context.Context, id, path string, in PricingInput, ifMatch string) (*Change, error) {
	p, err := spectree.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "update_pricing", func(f *spectree.Forest) (*Change, error) {
		n, err := f.Get(p)
		if err != nil {
			return nil, err
		}
		if n.PricingAttrs() == nil {
			return nil, fmt.Errorf("specservice: %s has no pricing attributes: %w", n.Type, apperr.ErrInvalidInput)
		}
		if _, err := f.UpdateFields(p, in.fields()); err != nil {
			return nil, err
		}
		return &Change{Path: p.String()}, nil
	})
}

// CodeInfo is what the parser makes of a shorthand cabinet code.
type CodeInfo struct {
	Code    string   `json:"code"`
	Matched bool     `json:"matched"`
	Type    *string  `json:"cabinet_type"`
	Width   *float64 `json:"width_inches"`
	Depth   *float64 `json:"depth_inches,omitempty"`
	Height  *float64 `json:"height_inches,omitempty"`
}

// ParseCode infers type, width and default dimensions from code.
func (s *Service) ParseCode(code string) CodeInfo {
	info := CodeInfo{Code: strings.ToUpper(strings.TrimSpace(code))}
	inf := parser.ParseCode(code)
	if !inf.Matched() {
		return info
	}
	info.Matched = true
	info.Type = &inf.Type
	info.Width = &inf.Width
	if d, ok := parser.Defaults(inf.Type); ok {
		info.Depth = &d.Depth
		info.Height = &d.Height
	}
	return info
}

// UnitPrice resolves the price per linear foot for a triple, filling
// unset attributes from the default triple.
func (s *Service) UnitPrice(t pricing.Triple) (pricing.Triple, float64, error) {
	t = spectree.Effective(pricing.DefaultTriple, spectree.Pricing{
		CabinetLevel:     t.Level,
		MaterialCategory: t.Material,
		FinishOption:     t.Finish,
	})
	if s.resolver == nil {
		return t, 0, fmt.Errorf("specservice: no pricing resolver: %w", apperr.ErrUnknownPricingTriple)
	}
	price, err := s.resolver.UnitPricePerLinearFoot(t)
	return t, price, err
}

// PricingOptions lists selectable levels, materials and finishes. Levels
// the configured shop capacity cannot produce are left out.
func (s *Service) PricingOptions() (levels, materials, finishes []pricing.Option) {
	tb := pricing.DefaultTable()
	if s.catalog != nil {
		if t := s.catalog.Table(); t != nil {
			tb = t
		}
	}
	levels, materials, finishes = tb.Options()
	return pricing.AvailableLevels(levels, s.shopCapacity), materials, finishes
}

// InheritanceSource reports which ancestor level supplies field for the
// node at path: "" when the node sets it, "default" when nothing does.
func (s *Service) InheritanceSource(_ context.Context, id, path, field string) (string, error) {
	p, err := spectree.ParsePath(path)
	if err != nil {
		return "", err
	}
	f, _, err := s.load(id)
	if err != nil {
		return "", err
	}
	return spectree.InheritanceSource(f, p, field)
}
