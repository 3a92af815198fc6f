package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/millwork/internal/pricing"
	"github.com/starford/millwork/internal/specservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *specservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *specservice.Service) *Handler {
	return &Handler{svc: svc}
}

type validatable interface {
	Validate() error
}

// decode reads a JSON body into v and validates it. It writes the 400
// response itself and reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v validatable) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

func writeChange(w http.ResponseWriter, status int, ch *specservice.Change) {
	w.Header().Set("ETag", etag(ch.Spec.Checksum))
	writeJSON(w, status, changeResponse(ch))
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	metas, err := h.svc.ListProjects(r.Context())
	if err != nil {
		writeError(w, "list projects", err)
		return
	}
	items := make([]ProjectItem, 0, len(metas))
	for _, m := range metas {
		items = append(items, ProjectItem{ID: m.ID, Checksum: m.Checksum, UpdatedAt: m.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: items})
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create an empty project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to create"
//	@Success		201		{object}	SpecResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	spec, err := h.svc.CreateProject(r.Context(), req.ID)
	if err != nil {
		writeError(w, "create project", err, slog.String("project", req.ID))
		return
	}
	w.Header().Set("ETag", etag(spec.Checksum))
	writeJSON(w, http.StatusCreated, specResponse(spec))
}

// DeleteProject handles DELETE /api/projects/{id}.
//
//	@Summary		Delete a project
//	@Tags			projects
//	@Param			id	path	string	true	"Project id"
//	@Success		204	"Project deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteProject(r.Context(), id); err != nil {
		writeError(w, "delete project", err, slog.String("project", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSpec handles GET /api/projects/{id}/spec.
//
//	@Summary		Get a project's spec tree with recomputed totals
//	@Tags			spec
//	@Produce		json
//	@Param			id	path		string	true	"Project id"
//	@Success		200	{object}	SpecResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/spec [get]
func (h *Handler) GetSpec(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	spec, err := h.svc.GetSpec(r.Context(), id)
	if err != nil {
		writeError(w, "get spec", err, slog.String("project", id))
		return
	}
	w.Header().Set("ETag", etag(spec.Checksum))
	writeJSON(w, http.StatusOK, specResponse(spec))
}

// AddNode handles POST /api/projects/{id}/nodes.
//
//	@Summary		Append a node under a parent path
//	@Tags			spec
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Project id"
//	@Param			If-Match	header		string			false	"Spec checksum for optimistic concurrency"
//	@Param			body		body		AddNodeRequest	true	"Node to add"
//	@Success		201			{object}	ChangeResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/nodes [post]
func (h *Handler) AddNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AddNodeRequest
	if !decode(w, r, &req) {
		return
	}
	ch, err := h.svc.AddNode(r.Context(), id, req.ParentPath, req.Node, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "add node", err, slog.String("project", id), slog.String("parent", req.ParentPath))
		return
	}
	writeChange(w, http.StatusCreated, ch)
}

// UpdateNode handles PATCH /api/projects/{id}/nodes/{path}.
//
//	@Summary		Merge fields into a node
//	@Description	Non-positive or unparseable dimensions are dropped and listed in rejected.
//	@Tags			spec
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Project id"
//	@Param			path		path		string				true	"Node path, e.g. 0.children.1"
//	@Param			If-Match	header		string				false	"Spec checksum for optimistic concurrency"
//	@Param			body		body		UpdateNodeRequest	true	"Fields to merge"
//	@Success		200			{object}	ChangeResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/nodes/{path} [patch]
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id, path := chi.URLParam(r, "id"), chi.URLParam(r, "path")
	var req UpdateNodeRequest
	if !decode(w, r, &req) {
		return
	}
	ch, err := h.svc.UpdateNode(r.Context(), id, path, req.Fields, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "update node", err, slog.String("project", id), slog.String("path", path))
		return
	}
	writeChange(w, http.StatusOK, ch)
}

// DeleteNode handles DELETE /api/projects/{id}/nodes/{path}.
//
//	@Summary		Delete a node and its subtree
//	@Tags			spec
//	@Produce		json
//	@Param			id			path		string	true	"Project id"
//	@Param			path		path		string	true	"Node path"
//	@Param			If-Match	header		string	false	"Spec checksum for optimistic concurrency"
//	@Success		200			{object}	ChangeResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/nodes/{path} [delete]
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, path := chi.URLParam(r, "id"), chi.URLParam(r, "path")
	ch, err := h.svc.DeleteNode(r.Context(), id, path, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "delete node", err, slog.String("project", id), slog.String("path", path))
		return
	}
	writeChange(w, http.StatusOK, ch)
}

// MoveNode handles POST /api/projects/{id}/nodes/{path}/move and
// POST /api/projects/{id}/nodes/move (reorders rooms).
//
//	@Summary		Reorder the children of a parent node
//	@Tags			spec
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Project id"
//	@Param			path		path		string			true	"Parent path"
//	@Param			If-Match	header		string			false	"Spec checksum for optimistic concurrency"
//	@Param			body		body		MoveNodeRequest	true	"Indexes"
//	@Success		200			{object}	ChangeResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/nodes/{path}/move [post]
func (h *Handler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id, parent := chi.URLParam(r, "id"), chi.URLParam(r, "path")
	var req MoveNodeRequest
	if !decode(w, r, &req) {
		return
	}
	ch, err := h.svc.MoveNode(r.Context(), id, parent, req.From, req.To, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "move node", err, slog.String("project", id), slog.String("parent", parent))
		return
	}
	writeChange(w, http.StatusOK, ch)
}

// UpdatePricing handles PUT /api/projects/{id}/nodes/{path}/pricing.
//
//	@Summary		Set or clear pricing attributes on a room, location or run
//	@Tags			spec
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Project id"
//	@Param			path		path		string					true	"Node path"
//	@Param			If-Match	header		string					false	"Spec checksum for optimistic concurrency"
//	@Param			body		body		UpdatePricingRequest	true	"Pricing attributes"
//	@Success		200			{object}	ChangeResponse
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/nodes/{path}/pricing [put]
func (h *Handler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	id, path := chi.URLParam(r, "id"), chi.URLParam(r, "path")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req UpdatePricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	ch, err := h.svc.UpdatePricing(r.Context(), id, path, req, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "update pricing", err, slog.String("project", id), slog.String("path", path))
		return
	}
	writeChange(w, http.StatusOK, ch)
}

// Inheritance handles GET /api/projects/{id}/nodes/{path}/inheritance.
//
//	@Summary		Report which ancestor supplies a pricing attribute
//	@Tags			spec
//	@Produce		json
//	@Param			id		path		string	true	"Project id"
//	@Param			path	path		string	true	"Node path"
//	@Param			field	query		string	true	"Pricing attribute"	Enums(cabinet_level, material_category, finish_option)
//	@Success		200		{object}	InheritanceResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/nodes/{path}/inheritance [get]
func (h *Handler) Inheritance(w http.ResponseWriter, r *http.Request) {
	id, path := chi.URLParam(r, "id"), chi.URLParam(r, "path")
	field := r.URL.Query().Get("field")
	src, err := h.svc.InheritanceSource(r.Context(), id, path, field)
	if err != nil {
		writeError(w, "inheritance", err, slog.String("project", id), slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, InheritanceResponse{Field: field, Source: src})
}

// AddCabinet handles POST /api/projects/{id}/cabinets.
//
//	@Summary		Add a cabinet to a run with code inference and sequential naming
//	@Tags			spec
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Project id"
//	@Param			If-Match	header		string				false	"Spec checksum for optimistic concurrency"
//	@Param			body		body		AddCabinetRequest	true	"Cabinet"
//	@Success		201			{object}	ChangeResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/cabinets [post]
func (h *Handler) AddCabinet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AddCabinetRequest
	if !decode(w, r, &req) {
		return
	}
	ch, err := h.svc.AddCabinet(r.Context(), id, req.RunPath, req.CabinetInput, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "add cabinet", err, slog.String("project", id), slog.String("run", req.RunPath))
		return
	}
	writeChange(w, http.StatusCreated, ch)
}

// ParseCode handles GET /api/parse.
//
//	@Summary		Infer cabinet type and width from a shorthand code
//	@Tags			parser
//	@Produce		json
//	@Param			code	query		string	true	"Cabinet code, e.g. B24"
//	@Success		200		{object}	CodeInfo
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/parse [get]
func (h *Handler) ParseCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'code' is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ParseCode(code))
}

// UnitPrice handles GET /api/pricing/unit-price.
//
//	@Summary		Resolve the price per linear foot for a pricing triple
//	@Description	Omitted attributes fall back to the default triple (level 3, stain_grade, unfinished).
//	@Tags			pricing
//	@Produce		json
//	@Param			level		query		int		false	"Cabinet level 1-5"
//	@Param			material	query		string	false	"Material category"
//	@Param			finish		query		string	false	"Finish option"
//	@Success		200			{object}	UnitPriceResponse
//	@Failure		400			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pricing/unit-price [get]
func (h *Handler) UnitPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var t pricing.Triple
	if s := q.Get("level"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || !pricing.Level(n).Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("level must be between 1 and 5"))
			return
		}
		t.Level = pricing.Level(n)
	}
	t.Material = q.Get("material")
	t.Finish = q.Get("finish")

	t, price, err := h.svc.UnitPrice(t)
	if err != nil {
		writeError(w, "unit price", err, slog.String("triple", t.String()))
		return
	}
	writeJSON(w, http.StatusOK, UnitPriceResponse{
		Level:         t.Level,
		Material:      t.Material,
		Finish:        t.Finish,
		UnitPrice:     round2(price),
		UnitPriceText: money(price),
	})
}

// PricingOptions handles GET /api/pricing/options.
//
//	@Summary		List selectable levels, materials and finishes
//	@Tags			pricing
//	@Produce		json
//	@Success		200	{object}	PricingOptionsResponse
//	@Security		BearerAuth
//	@Router			/pricing/options [get]
func (h *Handler) PricingOptions(w http.ResponseWriter, _ *http.Request) {
	levels, materials, finishes := h.svc.PricingOptions()
	writeJSON(w, http.StatusOK, PricingOptionsResponse{
		Levels:    optionItems(levels),
		Materials: optionItems(materials),
		Finishes:  optionItems(finishes),
	})
}
