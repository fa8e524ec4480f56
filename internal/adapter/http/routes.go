package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Context assembly
		r.Post("/context", h.AssembleContext)
		r.Get("/context", h.AssembleContextGet)

		// Manifest administration
		r.Route("/admin", func(r chi.Router) {
			r.Get("/manifest", h.GetManifest)
			r.Put("/manifest", h.SaveManifest)
			r.Post("/manifest/preview", h.PreviewManifest)
			r.Post("/cache/clear", h.ClearCache)
		})
	})
}
