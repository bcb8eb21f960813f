// internal/app/features/collections/routes.go
package collections

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the collection router, mounted by organizations at
// /organizations/{orgName}/collections behind the auth gate and org-path
// check. entities is mounted at /{collectionName}/entities when non-nil.
func Routes(h *Handler, entities http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)
	r.Post("/"+ReservedName, h.HandleQuery)

	r.Route("/{"+NameParam+"}", func(cr chi.Router) {
		cr.Get("/", h.ServeCollection)
		cr.Delete("/", h.HandleDelete)
		cr.Patch("/{"+TokenParam+"}", h.HandlePatch)

		if entities != nil {
			cr.Mount("/entities", entities)
		}
	})

	return r
}
