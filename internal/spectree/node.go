// Package spectree holds the cabinet specification tree: a forest of rooms
// whose descendants are addressed by dot-notation paths, plus the rollup,
// pricing inheritance and sequential naming that operate on it.
package spectree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/millwork/internal/apperr"
	"github.com/starford/millwork/internal/pricing"
)

// Kind is the node variant tag.
type Kind string

const (
	KindRoom     Kind = "room"
	KindLocation Kind = "room_location"
	KindRun      Kind = "cabinet_run"
	KindCabinet  Kind = "cabinet"
	KindSection  Kind = "section"
	KindContent  Kind = "content"
	KindHardware Kind = "hardware"
)

var childKinds = map[Kind]Kind{
	KindRoom:     KindLocation,
	KindLocation: KindRun,
	KindRun:      KindCabinet,
	KindCabinet:  KindSection,
	KindSection:  KindContent,
	KindContent:  KindHardware,
}

// ChildKind returns the only kind allowed under k. Hardware has none.
func ChildKind(k Kind) (Kind, bool) {
	c, ok := childKinds[k]
	return c, ok
}

// Valid reports whether k is one of the seven known kinds.
func (k Kind) Valid() bool {
	_, ok := childKinds[k]
	return ok || k == KindHardware
}

// Source records who created a node. Audit only.
type Source string

const (
	SourceUser Source = "user"
	SourceAI   Source = "ai"
)

// Node is a single entity of the tree. Kind-specific data lives in Attrs,
// whose concrete type always matches Type.
type Node struct {
	ID        string
	Type      Kind
	Name      string
	Source    Source
	CreatedAt time.Time
	Children  []*Node
	Attrs     Attributes

	// Computed by the Calculator. Never authoritative.
	LinearFeet         float64
	EstimatedPrice     float64
	PricingUnavailable bool
}

// Attributes is the kind-specific payload of a Node.
type Attributes interface {
	Kind() Kind
	Validate() error
}

// NewID returns a fresh node id of the form {kind}_{random8}.
func NewID(k Kind) string {
	return string(k) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewNode builds a validated node with a fresh id and creation time.
// A nil attrs gets the kind's empty payload.
func NewNode(kind Kind, name string, attrs Attributes, src Source) (*Node, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("spectree: unknown node type %q: %w", kind, apperr.ErrInvalidInput)
	}
	if attrs == nil {
		attrs = newAttrs(kind)
	}
	if attrs.Kind() != kind {
		return nil, fmt.Errorf("spectree: %s payload on %s node: %w", attrs.Kind(), kind, apperr.ErrInvalidInput)
	}
	if err := attrs.Validate(); err != nil {
		return nil, fmt.Errorf("spectree: invalid %s: %w: %w", kind, apperr.ErrInvalidInput, err)
	}
	if src == "" {
		src = SourceUser
	}
	return &Node{
		ID:        NewID(kind),
		Type:      kind,
		Name:      name,
		Source:    src,
		CreatedAt: time.Now().UTC(),
		Children:  []*Node{},
		Attrs:     attrs,
	}, nil
}

// PricingAttrs returns the node's own pricing attributes, or nil for kinds
// that carry none.
func (n *Node) PricingAttrs() *Pricing {
	switch a := n.Attrs.(type) {
	case *RoomAttrs:
		return &a.Pricing
	case *LocationAttrs:
		return &a.Pricing
	case *RunAttrs:
		return &a.Pricing
	}
	return nil
}

// Cabinet returns the cabinet payload, or nil for other kinds.
func (n *Node) Cabinet() *CabinetAttrs {
	a, _ := n.Attrs.(*CabinetAttrs)
	return a
}

// Run returns the run payload, or nil for other kinds.
func (n *Node) Run() *RunAttrs {
	a, _ := n.Attrs.(*RunAttrs)
	return a
}

// Pricing holds the inheritable pricing attributes. Zero values mean unset.
type Pricing struct {
	CabinetLevel     pricing.Level `json:"cabinet_level,omitempty"`
	MaterialCategory string        `json:"material_category,omitempty"`
	FinishOption     string        `json:"finish_option,omitempty"`
}

func (p Pricing) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CabinetLevel, validation.By(levelRule)),
	)
}

func levelRule(value interface{}) error {
	l, _ := value.(pricing.Level)
	if l != 0 && !l.Valid() {
		return errors.New("must be between 1 and 5")
	}
	return nil
}

type RoomAttrs struct {
	RoomType    string `json:"room_type,omitempty"`
	FloorNumber int    `json:"floor_number,omitempty"`
	Pricing
}

func (*RoomAttrs) Kind() Kind { return KindRoom }

func (a *RoomAttrs) Validate() error {
	if err := validation.ValidateStruct(a,
		validation.Field(&a.FloorNumber, validation.Min(0)),
	); err != nil {
		return err
	}
	return a.Pricing.Validate()
}

type LocationAttrs struct {
	LocationType string `json:"location_type,omitempty"`
	Pricing
}

func (*LocationAttrs) Kind() Kind { return KindLocation }

func (a *LocationAttrs) Validate() error { return a.Pricing.Validate() }

type RunAttrs struct {
	RunType string `json:"run_type,omitempty"`
	Pricing
}

func (*RunAttrs) Kind() Kind { return KindRun }

func (a *RunAttrs) Validate() error { return a.Pricing.Validate() }

// CabinetAttrs describes one cabinet. Name on the node is the run-scoped
// sequential name; Code is whatever the user typed (B24, W3012, ...).
type CabinetAttrs struct {
	CabinetType   string  `json:"cabinet_type,omitempty"`
	LengthInches  float64 `json:"length_inches,omitempty"`
	DepthInches   float64 `json:"depth_inches,omitempty"`
	HeightInches  float64 `json:"height_inches,omitempty"`
	Quantity      int     `json:"quantity,omitempty"`
	Code          string  `json:"code,omitempty"`
	PositionInRun int     `json:"position_in_run,omitempty"`
}

func (*CabinetAttrs) Kind() Kind { return KindCabinet }

func (a *CabinetAttrs) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.LengthInches, validation.Min(0.0)),
		validation.Field(&a.DepthInches, validation.Min(0.0)),
		validation.Field(&a.HeightInches, validation.Min(0.0)),
		validation.Field(&a.Quantity, validation.Min(0)),
	)
}

type SectionAttrs struct {
	WidthInches  float64 `json:"width_inches,omitempty"`
	HeightInches float64 `json:"height_inches,omitempty"`
	DepthInches  float64 `json:"depth_inches,omitempty"`
}

func (*SectionAttrs) Kind() Kind { return KindSection }

func (a *SectionAttrs) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.WidthInches, validation.Min(0.0)),
		validation.Field(&a.HeightInches, validation.Min(0.0)),
		validation.Field(&a.DepthInches, validation.Min(0.0)),
	)
}

type ContentAttrs struct {
	ContentType  string  `json:"content_type,omitempty"`
	WidthInches  float64 `json:"width_inches,omitempty"`
	HeightInches float64 `json:"height_inches,omitempty"`
	DepthInches  float64 `json:"depth_inches,omitempty"`
	Quantity     int     `json:"quantity,omitempty"`
}

func (*ContentAttrs) Kind() Kind { return KindContent }

func (a *ContentAttrs) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.WidthInches, validation.Min(0.0)),
		validation.Field(&a.HeightInches, validation.Min(0.0)),
		validation.Field(&a.DepthInches, validation.Min(0.0)),
		validation.Field(&a.Quantity, validation.Min(0)),
	)
}

type HardwareAttrs struct {
	ComponentType string  `json:"component_type,omitempty"`
	ProductID     int64   `json:"product_id,omitempty"`
	SKU           string  `json:"sku,omitempty"`
	UnitCost      float64 `json:"unit_cost,omitempty"`
	Quantity      int     `json:"quantity,omitempty"`
}

func (*HardwareAttrs) Kind() Kind { return KindHardware }

func (a *HardwareAttrs) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.UnitCost, validation.Min(0.0)),
		validation.Field(&a.Quantity, validation.Min(0)),
	)
}

func newAttrs(k Kind) Attributes {
	switch k {
	case KindRoom:
		return &RoomAttrs{}
	case KindLocation:
		return &LocationAttrs{}
	case KindRun:
		return &RunAttrs{}
	case KindCabinet:
		return &CabinetAttrs{}
	case KindSection:
		return &SectionAttrs{}
	case KindContent:
		return &ContentAttrs{}
	case KindHardware:
		return &HardwareAttrs{}
	}
	return nil
}

// nodeHeader is the part of the JSON object shared by every kind.
type nodeHeader struct {
	ID                 string    `json:"id"`
	Type               Kind      `json:"type"`
	Name               string    `json:"name"`
	Source             Source    `json:"source,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	Children           []*Node   `json:"children"`
	LinearFeet         float64   `json:"linear_feet"`
	EstimatedPrice     float64   `json:"estimated_price"`
	PricingUnavailable bool      `json:"pricing_unavailable,omitempty"`
}

// MarshalJSON writes the node as one flat object: the shared keys followed
// by the payload keys.
func (n *Node) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	hdr, err := json.Marshal(nodeHeader{
		ID:                 n.ID,
		Type:               n.Type,
		Name:               n.Name,
		Source:             n.Source,
		CreatedAt:          n.CreatedAt,
		Children:           children,
		LinearFeet:         n.LinearFeet,
		EstimatedPrice:     n.EstimatedPrice,
		PricingUnavailable: n.PricingUnavailable,
	})
	if err != nil {
		return nil, err
	}
	if n.Attrs == nil {
		return hdr, nil
	}
	attrs, err := json.Marshal(n.Attrs)
	if err != nil {
		return nil, err
	}
	attrs = bytes.TrimSpace(attrs)
	if len(attrs) <= 2 {
		return hdr, nil
	}

	out := make([]byte, 0, len(hdr)+len(attrs))
	out = append(out, hdr[:len(hdr)-1]...)
	out = append(out, ',')
	out = append(out, attrs[1:]...)
	return out, nil
}

// UnmarshalJSON reads the flat object form and dispatches the payload on type.
func (n *Node) UnmarshalJSON(data []byte) error {
	var hdr nodeHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return err
	}
	if !hdr.Type.Valid() {
		return fmt.Errorf("spectree: unknown node type %q", hdr.Type)
	}
	attrs := newAttrs(hdr.Type)
	if err := json.Unmarshal(data, attrs); err != nil {
		return fmt.Errorf("spectree: decode %s %s: %w", hdr.Type, hdr.ID, err)
	}
	if hdr.Children == nil {
		hdr.Children = []*Node{}
	}
	for i, c := range hdr.Children {
		if c == nil {
			return fmt.Errorf("spectree: decode %s %s: child %d is null", hdr.Type, hdr.ID, i)
		}
	}
	*n = Node{
		ID:                 hdr.ID,
		Type:               hdr.Type,
		Name:               hdr.Name,
		Source:             hdr.Source,
		CreatedAt:          hdr.CreatedAt,
		Children:           hdr.Children,
		Attrs:              attrs,
		LinearFeet:         hdr.LinearFeet,
		EstimatedPrice:     hdr.EstimatedPrice,
		PricingUnavailable: hdr.PricingUnavailable,
	}
	return nil
}
