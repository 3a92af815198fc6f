package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/millwork/internal/pricing"
	"github.com/starford/millwork/internal/specservice"
	"github.com/starford/millwork/internal/spectree"
	"github.com/starford/millwork/internal/testutil"
)

func testServer(t *testing.T) (*Server, *specservice.Service) {
	t.Helper()

	_, store := testutil.TestFS(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := specservice.NewService(store, pricing.DefaultTable(), logger)

	srv := New(svc)
	return srv, svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_projects":
		result, err = srv.listProjects(ctx, req)
	case "create_project":
		result, err = srv.createProject(ctx, req)
	case "get_spec":
		result, err = srv.getSpec(ctx, req)
	case "get_spec_contract":
		result, err = srv.getSpecContract(ctx, req)
	case "create_room":
		result, err = srv.createRoom(ctx, req)
	case "create_location":
		result, err = srv.createLocation(ctx, req)
	case "create_run":
		result, err = srv.createRun(ctx, req)
	case "add_cabinets":
		result, err = srv.addCabinets(ctx, req)
	case "update_cabinet_field":
		result, err = srv.updateCabinetField(ctx, req)
	case "delete_entity":
		result, err = srv.deleteEntity(ctx, req)
	case "update_pricing":
		result, err = srv.updatePricing(ctx, req)
	case "parse_cabinet_code":
		result, err = srv.parseCabinetCode(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustOK(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	text := resultText(r)
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	return text
}

func summary(t *testing.T, r *mcp.CallToolResult) changeSummary {
	t.Helper()
	var s changeSummary
	if err := json.Unmarshal([]byte(mustOK(t, r)), &s); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return s
}

// seedKitchen builds Kitchen > Sink Wall > Base Run through the tools.
func seedKitchen(t *testing.T, srv *Server) {
	t.Helper()
	mustOK(t, callTool(t, srv, "create_project", map[string]interface{}{"project_id": "p1"}))
	mustOK(t, callTool(t, srv, "create_room", map[string]interface{}{
		"project_id": "p1",
		"name":       "Kitchen",
		"room_type":  "kitchen",
	}))
	mustOK(t, callTool(t, srv, "create_location", map[string]interface{}{
		"project_id": "p1",
		"room_name":  "Kitchen",
		"name":       "Sink Wall",
	}))
	mustOK(t, callTool(t, srv, "create_run", map[string]interface{}{
		"project_id":    "p1",
		"room_name":     "Kitchen",
		"location_name": "Sink Wall",
		"name":          "Base Run",
		"run_type":      "base",
	}))
}

func TestCreateProjectAndList(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_project", map[string]interface{}{"project_id": "p1"})
	if text := resultText(r); text != "created: p1" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "create_project", map[string]interface{}{"project_id": "p1"})
	if !r.IsError {
		t.Error("expected error for duplicate project")
	}

	r = callTool(t, srv, "list_projects", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, `"p1"`) {
		t.Errorf("list = %q", text)
	}
}

func TestCreateProjectMissingID(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_project", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing project_id")
	}
}

func TestAddCabinetsAndTotals(t *testing.T) {
	srv, svc := testServer(t)
	seedKitchen(t, srv)

	s := summary(t, callTool(t, srv, "add_cabinets", map[string]interface{}{
		"project_id": "p1",
		"run_name":   "Base Run",
		"cabinets": []interface{}{
			map[string]interface{}{"name": "B24"},
			map[string]interface{}{"name": "SB36", "quantity": 1},
		},
	}))
	if s.Path != "0.children.0.children.0" {
		t.Errorf("path = %q", s.Path)
	}
	if s.TotalLinearFeet != 5 {
		t.Errorf("LF = %v, want 5", s.TotalLinearFeet)
	}
	if s.TotalPrice != 5*348 {
		t.Errorf("price = %v, want 1740", s.TotalPrice)
	}

	spec, err := svc.GetSpec(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	run, err := spec.Rooms.Get(spectree.Path{0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Children) != 2 || run.Children[0].Name != "B1" || run.Children[1].Cabinet().Code != "SB36" {
		t.Errorf("cabinets = %+v", run.Children)
	}

	r := callTool(t, srv, "get_spec", map[string]interface{}{"project_id": "p1"})
	if text := mustOK(t, r); !strings.Contains(text, `"total_linear_feet": 5`) {
		t.Errorf("get_spec missing totals: %s", text)
	}
}

func TestAddCabinetsEmpty(t *testing.T) {
	srv, _ := testServer(t)
	seedKitchen(t, srv)

	r := callTool(t, srv, "add_cabinets", map[string]interface{}{
		"project_id": "p1",
		"cabinets":   []interface{}{},
	})
	if !r.IsError {
		t.Error("expected error for empty cabinets")
	}
}

func TestUpdateCabinetFieldRejected(t *testing.T) {
	srv, _ := testServer(t)
	seedKitchen(t, srv)
	mustOK(t, callTool(t, srv, "add_cabinets", map[string]interface{}{
		"project_id": "p1",
		"cabinets":   []interface{}{map[string]interface{}{"name": "B24"}},
	}))

	s := summary(t, callTool(t, srv, "update_cabinet_field", map[string]interface{}{
		"project_id": "p1",
		"path":       "0.children.0.children.0.children.0",
		"field":      "length_inches",
		"value":      "-3",
	}))
	if len(s.Rejected) != 1 || s.Rejected[0] != "length_inches" {
		t.Errorf("rejected = %v", s.Rejected)
	}
	if s.TotalLinearFeet != 2 {
		t.Errorf("LF = %v, want 2 (unchanged)", s.TotalLinearFeet)
	}

	s = summary(t, callTool(t, srv, "update_cabinet_field", map[string]interface{}{
		"project_id": "p1",
		"path":       "0.children.0.children.0.children.0",
		"field":      "length_inches",
		"value":      "36",
	}))
	if s.TotalLinearFeet != 3 {
		t.Errorf("LF = %v, want 3", s.TotalLinearFeet)
	}
}

func TestUpdatePricingByName(t *testing.T) {
	srv, _ := testServer(t)
	seedKitchen(t, srv)
	mustOK(t, callTool(t, srv, "add_cabinets", map[string]interface{}{
		"project_id": "p1",
		"cabinets":   []interface{}{map[string]interface{}{"name": "B24"}, map[string]interface{}{"name": "B36"}},
	}))

	s := summary(t, callTool(t, srv, "update_pricing", map[string]interface{}{
		"project_id":    "p1",
		"type":          "room",
		"name":          "Kitchen",
		"cabinet_level": 5,
	}))
	if s.TotalPrice != 5*381 {
		t.Errorf("price = %v, want %v", s.TotalPrice, 5*381)
	}

	r := callTool(t, srv, "update_pricing", map[string]interface{}{
		"project_id":    "p1",
		"type":          "room",
		"name":          "Pantry",
		"cabinet_level": 2,
	})
	if !r.IsError {
		t.Error("expected error for unknown room")
	}

	r = callTool(t, srv, "update_pricing", map[string]interface{}{"project_id": "p1"})
	if !r.IsError {
		t.Error("expected error without path or name")
	}
}

func TestCreateRoomWithPricing(t *testing.T) {
	srv, svc := testServer(t)
	mustOK(t, callTool(t, srv, "create_project", map[string]interface{}{"project_id": "p1"}))
	mustOK(t, callTool(t, srv, "create_room", map[string]interface{}{
		"project_id":        "p1",
		"name":              "Bath",
		"material_category": "paint_grade",
		"cabinet_level":     1,
	}))

	spec, err := svc.GetSpec(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	room, err := spec.Rooms.Get(spectree.Path{0})
	if err != nil {
		t.Fatal(err)
	}
	p := room.PricingAttrs()
	if p == nil || p.CabinetLevel != 1 || p.MaterialCategory != "paint_grade" {
		t.Errorf("pricing = %+v", p)
	}
}

func TestDeleteEntityByName(t *testing.T) {
	srv, svc := testServer(t)
	seedKitchen(t, srv)

	r := callTool(t, srv, "delete_entity", map[string]interface{}{"project_id": "p1"})
	if !r.IsError {
		t.Error("expected error without path or name")
	}

	mustOK(t, callTool(t, srv, "delete_entity", map[string]interface{}{
		"project_id": "p1",
		"type":       "location",
		"name":       "Sink Wall",
	}))
	spec, err := svc.GetSpec(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Rooms.Count() != 1 {
		t.Errorf("count = %d, want 1", spec.Rooms.Count())
	}
}

func TestParseCabinetCode(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "parse_cabinet_code", map[string]interface{}{"code": "W3012"})
	var info specservice.CodeInfo
	if err := json.Unmarshal([]byte(mustOK(t, r)), &info); err != nil {
		t.Fatal(err)
	}
	if !info.Matched || info.Type == nil || *info.Type != "wall" || info.Width == nil || *info.Width != 30 {
		t.Errorf("info = %+v", info)
	}
}

func TestSpecContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_spec_contract", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "cabinet_run") {
		t.Error("contract missing hierarchy")
	}

	res, err := srv.readSpecFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if tc, ok := res[0].(mcp.TextResourceContents); !ok || tc.URI != specFormatURI {
		t.Errorf("resource = %+v", res[0])
	}
}
