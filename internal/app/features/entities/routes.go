// internal/app/features/entities/routes.go
package entities

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the entity router, mounted by collections at
// .../collections/{collectionName}/entities.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)
	r.Post("/queries", h.HandleQuery)

	r.Get("/{"+IDParam+"}", h.ServeEntity)
	r.Delete("/{"+IDParam+"}", h.HandleDelete)
	r.Patch("/{"+IDParam+"}/{"+TokenParam+"}", h.HandlePatch)

	return r
}
