// internal/app/features/organizations/routes.go
package organizations

import (
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/ratelimit"
	"github.com/dalemusser/rentity/internal/app/system/scope"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the Organization routes under the base path
// (typically "/organizations" from bootstrap). Everything below
// /{orgName} passes the auth gate and the org-path check first;
// collections is mounted at /{orgName}/collections when non-nil.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler, collections http.Handler) chi.Router {
	r := chi.NewRouter()

	// Registration is the only unauthenticated route.
	r.With(ratelimit.PerIP(h.Registrations, h.Errors)).Post("/", h.HandleRegister)

	r.Route("/{"+scope.DefaultParam+"}", func(or chi.Router) {
		or.Use(requireAuth)
		or.Use(scope.RequireOrgPath(scope.DefaultParam, h.Errors))

		or.Get("/", h.ServeProfile)
		or.Delete("/", h.HandleDelete)

		if collections != nil {
			or.Mount("/collections", collections)
		}
	})

	return r
}
