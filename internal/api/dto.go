package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/starford/millwork/internal/checksum"
	"github.com/starford/millwork/internal/pricing"
	"github.com/starford/millwork/internal/specservice"
	"github.com/starford/millwork/internal/spectree"
	"github.com/starford/millwork/internal/storage"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	ID string `json:"id" example:"smith-kitchen" validate:"required"`
}

func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.By(func(v any) error {
			return storage.ValidateID(v.(string))
		})),
	)
}

// AddNodeRequest appends a node (with any children) under ParentPath.
// An empty ParentPath appends a room.
type AddNodeRequest struct {
	ParentPath string         `json:"parent_path" example:"0.children.0"`
	Node       *spectree.Node `json:"node" validate:"required"`
}

func (r AddNodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Node, validation.Required),
	)
}

// UpdateNodeRequest merges Fields into a node.
type UpdateNodeRequest struct {
	Fields map[string]any `json:"fields" validate:"required"`
}

func (r UpdateNodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Fields, validation.Required),
	)
}

// MoveNodeRequest reorders children of the parent in the URL.
type MoveNodeRequest struct {
	From int `json:"from" example:"2"`
	To   int `json:"to" example:"0"`
}

func (r MoveNodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Min(0)),
		validation.Field(&r.To, validation.Min(0)),
	)
}

// AddCabinetRequest adds one cabinet to a run.
type AddCabinetRequest struct {
	RunPath string `json:"run_path" example:"0.children.0.children.0" validate:"required"`
	specservice.CabinetInput
}

func (r AddCabinetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RunPath, validation.Required),
		validation.Field(&r.Quantity, validation.Min(0)),
		validation.Field(&r.Length, validation.Min(0.0)),
		validation.Field(&r.Depth, validation.Min(0.0)),
		validation.Field(&r.Height, validation.Min(0.0)),
	)
}

// UpdatePricingRequest sets or clears pricing attributes. Omitted fields
// are left alone; an empty value clears the attribute.
type UpdatePricingRequest = specservice.PricingInput

// SpecResponse is a project's tree with totals rounded for display.
type SpecResponse struct {
	ProjectID       string                `json:"project_id" example:"smith-kitchen"`
	Rooms           *spectree.Forest      `json:"rooms" swaggertype:"array,object"`
	TotalLinearFeet float64               `json:"total_linear_feet" example:"12.5"`
	TotalPrice      float64               `json:"total_price" example:"4350"`
	TotalPriceText  string                `json:"total_price_text" example:"4350.00"`
	LeadTimeDays    int                   `json:"lead_time_days" example:"3"`
	NodeCount       int                   `json:"node_count" example:"9"`
	Failures        []spectree.RunFailure `json:"failures,omitempty"`
	Checksum        string                `json:"checksum"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ChangeResponse is returned by every mutation.
type ChangeResponse struct {
	Spec     SpecResponse `json:"spec"`
	Path     string       `json:"path,omitempty" example:"0.children.0"`
	Rejected []string     `json:"rejected,omitempty" example:"length_inches"`
}

// ProjectListResponse wraps project listings.
type ProjectListResponse struct {
	Projects []ProjectItem `json:"projects" validate:"required"`
}

// ProjectItem is one entry in a project listing.
type ProjectItem struct {
	ID        string    `json:"id" example:"smith-kitchen"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnitPriceResponse is the resolved price for a pricing triple.
type UnitPriceResponse struct {
	Level         pricing.Level `json:"cabinet_level" example:"3"`
	Material      string        `json:"material_category" example:"stain_grade"`
	Finish        string        `json:"finish_option" example:"unfinished"`
	UnitPrice     float64       `json:"unit_price_per_lf" example:"348"`
	UnitPriceText string        `json:"unit_price_text" example:"348.00"`
}

// PricingOptionsResponse lists selectable pricing attributes.
type PricingOptionsResponse struct {
	Levels    []OptionItem `json:"levels"`
	Materials []OptionItem `json:"materials"`
	Finishes  []OptionItem `json:"finishes"`
}

// OptionItem is one selectable pricing attribute.
type OptionItem struct {
	Key   string `json:"key" example:"stain_grade"`
	Name  string `json:"name" example:"Stain Grade"`
	Price string `json:"price_per_lf" example:"156.00"`
}

// InheritanceResponse reports where a node gets a pricing attribute from.
// Source is empty when the node sets the attribute itself.
type InheritanceResponse struct {
	Field  string `json:"field" example:"cabinet_level"`
	Source string `json:"source" example:"room"`
}

// CodeInfo is the parsed form of a cabinet code.
type CodeInfo = specservice.CodeInfo

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func specResponse(d *specservice.SpecDetail) SpecResponse {
	return SpecResponse{
		ProjectID:       d.ProjectID,
		Rooms:           d.Rooms,
		TotalLinearFeet: round2(d.TotalLinearFeet),
		TotalPrice:      round2(d.TotalPrice),
		TotalPriceText:  money(d.TotalPrice),
		LeadTimeDays:    d.LeadTimeDays,
		NodeCount:       d.NodeCount,
		Failures:        d.Failures,
		Checksum:        d.Checksum,
		UpdatedAt:       d.UpdatedAt,
	}
}

func changeResponse(ch *specservice.Change) ChangeResponse {
	return ChangeResponse{
		Spec:     specResponse(ch.Spec),
		Path:     ch.Path,
		Rejected: ch.Rejected,
	}
}

func optionItems(opts []pricing.Option) []OptionItem {
	out := make([]OptionItem, 0, len(opts))
	for _, o := range opts {
		out = append(out, OptionItem{Key: o.Key, Name: o.Name, Price: o.Price.StringFixed(2)})
	}
	return out
}

func etag(sum string) string {
	return checksum.ETag(sum)
}
