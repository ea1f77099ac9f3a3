package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/labelvault/internal/labelservice"
)

const maxBodyBytes = 10 << 20

// NewRouter returns the label API. Every route, including the event stream
// at GET /events when sseHandler is non-nil, sits behind the auth middleware.
func NewRouter(svc *labelservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	limitBody := middleware.RequestSize(maxBodyBytes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/labels", func(r chi.Router) {
		r.Get("/", h.ListLabels)
		r.With(middleware.NoCache).Get("/export", h.ExportLabels)
		r.With(limitBody).Post("/import", h.ImportLabels)
		r.Post("/save", h.SaveLabels)

		r.Get("/{type}/{ref}", h.GetLabel)
		r.With(limitBody).Put("/{type}/{ref}", h.SetLabel)
	})

	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
