package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halvard/othala/internal/markdown"
	"github.com/halvard/othala/internal/noteservice"
	"github.com/halvard/othala/internal/webclip"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// clipper, if non-nil, enables POST /notes/import.
func NewRouter(svc *noteservice.Service, renderer *markdown.Renderer, clipper *webclip.Clipper, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, renderer, clipper)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD. Static segments are registered before the id pattern
	// so chi routes them first.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/preview", h.Preview)
	r.Post("/notes/import", h.ImportURL)
	r.Get("/notes/{id}", h.GetNote)
	r.Patch("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Editor support.
	r.Get("/titles", h.Titles)

	// Capture.
	r.Post("/capture", h.Capture)

	// Graph.
	r.Get("/graph", h.Graph)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
