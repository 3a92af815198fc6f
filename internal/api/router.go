package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/millwork/internal/specservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *specservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Projects.
	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)

	// Spec tree.
	r.Route("/projects/{id}", func(r chi.Router) {
		r.Delete("/", h.DeleteProject)
		r.Get("/spec", h.GetSpec)
		r.Post("/cabinets", h.AddCabinet)
		r.Post("/nodes", h.AddNode)
		r.Post("/nodes/move", h.MoveNode)
		r.Patch("/nodes/{path}", h.UpdateNode)
		r.Delete("/nodes/{path}", h.DeleteNode)
		r.Post("/nodes/{path}/move", h.MoveNode)
		r.Put("/nodes/{path}/pricing", h.UpdatePricing)
		r.Get("/nodes/{path}/inheritance", h.Inheritance)
	})

	// Parser and pricing lookups.
	r.Get("/parse", h.ParseCode)
	r.Get("/pricing/unit-price", h.UnitPrice)
	r.Get("/pricing/options", h.PricingOptions)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
