// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes cabinet spec editing tools for LLM assistants via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/millwork/internal/specservice"
	"github.com/starford/millwork/internal/spectree"
)

const specFormatURI = "millwork://spec-format"

// Server wraps the MCP server with spec tools.
type Server struct {
	mcp *server.MCPServer
	svc *specservice.Service
}

// New creates a new MCP server with all spec tools registered.
func New(svc *specservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Millwork",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	projectID := mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id"))
	pricingOpts := []mcp.ToolOption{
		mcp.WithNumber("cabinet_level", mcp.Description("Cabinet level 1 (basic) to 5 (custom); omit to inherit")),
		mcp.WithString("material_category", mcp.Description("paint_grade, stain_grade, premium or custom_exotic; omit to inherit")),
		mcp.WithString("finish_option", mcp.Description("unfinished, natural_stain, custom_stain, paint_finish or clear_coat; omit to inherit")),
	}

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List project ids."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create an empty project spec."),
		projectID,
	), s.createProject)

	s.mcp.AddTool(mcp.NewTool("get_spec",
		mcp.WithDescription("Read a project's full spec tree with linear feet, prices and lead time."),
		projectID,
	), s.getSpec)

	s.mcp.AddTool(mcp.NewTool("get_spec_contract",
		mcp.WithDescription("Returns the spec tree format, path syntax, cabinet code and pricing rules. "+
			"Call this before building or editing a spec."),
	), s.getSpecContract)

	s.mcp.AddTool(mcp.NewTool("create_room",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a room, e.g. Kitchen or Primary Bath."),
			projectID,
			mcp.WithString("name", mcp.Required(), mcp.Description("Room name")),
			mcp.WithString("room_type", mcp.Description("kitchen, bathroom, laundry, pantry, office, ...")),
			mcp.WithNumber("floor_number", mcp.Description("Floor number")),
		}, pricingOpts...)...,
	), s.createRoom)

	s.mcp.AddTool(mcp.NewTool("create_location",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a location (wall, island, peninsula) inside a room."),
			projectID,
			mcp.WithString("name", mcp.Required(), mcp.Description("Location name, e.g. Sink Wall")),
			mcp.WithString("room_path", mcp.Description("Path of the room")),
			mcp.WithString("room_name", mcp.Description("Name of the room (alternative to room_path)")),
			mcp.WithString("location_type", mcp.Description("wall, island, peninsula, ...")),
		}, pricingOpts...)...,
	), s.createLocation)

	s.mcp.AddTool(mcp.NewTool("create_run",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a cabinet run inside a location."),
			projectID,
			mcp.WithString("name", mcp.Required(), mcp.Description("Run name, e.g. Base Run")),
			mcp.WithString("run_type", mcp.Required(), mcp.Description("base, wall, tall or island")),
			mcp.WithString("location_path", mcp.Description("Path of the location")),
			mcp.WithString("room_name", mcp.Description("Room name (with location_name, alternative to location_path)")),
			mcp.WithString("location_name", mcp.Description("Location name")),
		}, pricingOpts...)...,
	), s.createRun)

	s.mcp.AddTool(mcp.NewTool("add_cabinets",
		mcp.WithDescription("Add one or more cabinets to a run. Cabinets are named B1, W1, ... by the run; "+
			"pass the shorthand code (B24, SB36, W3012) as name or code to infer type and width. "+
			"When the run cannot be found the most recently created run is used."),
		projectID,
		mcp.WithString("run_path", mcp.Description("Path of the cabinet run")),
		mcp.WithString("run_name", mcp.Description("Name or run type of the run (alternative to run_path)")),
		mcp.WithString("room_name", mcp.Description("Room to search for run_name in")),
		mcp.WithString("location_name", mcp.Description("Location to search for run_name in")),
		mcp.WithArray("cabinets", mcp.Required(), mcp.Description("Cabinets to add"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":          map[string]any{"type": "string", "description": "Cabinet code, e.g. B24"},
					"code":          map[string]any{"type": "string", "description": "Cabinet code when name is free text"},
					"cabinet_type":  map[string]any{"type": "string", "description": "base, wall, tall, vanity, ..."},
					"width":         map[string]any{"type": "string", "description": "Width text, e.g. 24, 30\", 2ft"},
					"length_inches": map[string]any{"type": "number", "description": "Width in inches"},
					"depth_inches":  map[string]any{"type": "number"},
					"height_inches": map[string]any{"type": "number"},
					"quantity":      map[string]any{"type": "integer", "description": "Defaults to 1"},
				},
			}),
		),
	), s.addCabinets)

	s.mcp.AddTool(mcp.NewTool("update_cabinet_field",
		mcp.WithDescription("Set one field on a node, e.g. length_inches, quantity, code or name. "+
			"Non-positive or unparseable dimensions are rejected and reported."),
		projectID,
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the node")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field name")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.updateCabinetField)

	s.mcp.AddTool(mcp.NewTool("delete_entity",
		mcp.WithDescription("Delete a room, location, run or cabinet with everything under it."),
		projectID,
		mcp.WithString("path", mcp.Description("Path of the node")),
		mcp.WithString("name", mcp.Description("Name of the node (alternative to path)")),
		mcp.WithString("type", mcp.Description("room, location, run or cabinet")),
	), s.deleteEntity)

	s.mcp.AddTool(mcp.NewTool("update_pricing",
		append([]mcp.ToolOption{
			mcp.WithDescription("Set pricing attributes on a room, location or run. Descendants inherit them."),
			projectID,
			mcp.WithString("path", mcp.Description("Path of the room, location or run")),
			mcp.WithString("name", mcp.Description("Name of the node (alternative to path)")),
			mcp.WithString("type", mcp.Description("room, location or run")),
		}, pricingOpts...)...,
	), s.updatePricing)

	s.mcp.AddTool(mcp.NewTool("parse_cabinet_code",
		mcp.WithDescription("Infer cabinet type, width and default dimensions from a shorthand code."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Cabinet code, e.g. W3012")),
	), s.parseCabinetCode)

	s.mcp.AddResource(
		mcp.NewResource(specFormatURI, "Spec Format Contract",
			mcp.WithResourceDescription("Cabinet specification tree format, paths, codes and pricing rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSpecFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// bind decodes the tool arguments into v through their JSON form.
func bind(req mcp.CallToolRequest, v any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

type changeSummary struct {
	Path            string                `json:"path,omitempty"`
	Rejected        []string              `json:"rejected,omitempty"`
	TotalLinearFeet float64               `json:"total_linear_feet"`
	TotalPrice      float64               `json:"total_price"`
	LeadTimeDays    int                   `json:"lead_time_days"`
	Failures        []spectree.RunFailure `json:"pricing_failures,omitempty"`
}

func changeResult(ch *specservice.Change, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(changeSummary{
		Path:            ch.Path,
		Rejected:        ch.Rejected,
		TotalLinearFeet: ch.Spec.TotalLinearFeet,
		TotalPrice:      ch.Spec.TotalPrice,
		LeadTimeDays:    ch.Spec.LeadTimeDays,
		Failures:        ch.Spec.Failures,
	}), nil
}

func (s *Server) listProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.svc.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids := make([]string, 0, len(metas))
	for _, m := range metas {
		ids = append(ids, m.ID)
	}
	return jsonResult(ids), nil
}

func (s *Server) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.CreateProject(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) getSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spec, err := s.svc.GetSpec(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(spec), nil
}

func (s *Server) getSpecContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SpecFormatContract), nil
}

func (s *Server) readSpecFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      specFormatURI,
			MIMEType: "text/markdown",
			Text:     SpecFormatContract,
		},
	}, nil
}

// pricingArgs reads the flat pricing arguments shared by the create tools.
func pricingArgs(req mcp.CallToolRequest) (spectree.Pricing, error) {
	var p spectree.Pricing
	err := bind(req, &p)
	return p, err
}

func (s *Server) createRoom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in specservice.RoomRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Pricing, err = pricingArgs(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(s.svc.CreateRoom(ctx, id, in, ""))
}

func (s *Server) createLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in specservice.LocationRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Pricing, err = pricingArgs(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(s.svc.CreateLocation(ctx, id, in, ""))
}

func (s *Server) createRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in specservice.RunRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Pricing, err = pricingArgs(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(s.svc.CreateRun(ctx, id, in, ""))
}

func (s *Server) addCabinets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in specservice.CabinetsRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(s.svc.AddCabinets(ctx, id, in, ""))
}

func (s *Server) updateCabinetField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, ok := req.GetArguments()["value"]
	if !ok {
		return mcp.NewToolResultError("required argument \"value\" not found"), nil
	}
	return changeResult(s.svc.UpdateNode(ctx, id, path, map[string]any{field: value}, ""))
}

func (s *Server) deleteEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in specservice.DeleteRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Path == "" && in.Name == "" {
		return mcp.NewToolResultError("path or name is required"), nil
	}
	return changeResult(s.svc.DeleteEntity(ctx, id, in, ""))
}

func (s *Server) updatePricing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var target specservice.DeleteRequest
	if err := bind(req, &target); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := target.Path
	if path == "" {
		if target.Name == "" {
			return mcp.NewToolResultError("path or name is required"), nil
		}
		if path, err = s.svc.ResolvePath(ctx, id, target.Type, target.Name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	var in specservice.PricingInput
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(s.svc.UpdatePricing(ctx, id, path, in, ""))
}

func (s *Server) parseCabinetCode(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.ParseCode(code)), nil
}
