// Package scope enforces that a request only touches the tenant named in
// its URL.
package scope

import (
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// DefaultParam is the route parameter holding the organization name.
const DefaultParam = "orgName"

// Check compares the authenticated tenant with the organization named by
// the URL. Names are compared exactly.
func Check(t tenant.Context, pathOrg string) error {
	if pathOrg == "" || t.Organization != pathOrg {
		return apierr.Authz(apierr.ReasonOrgPathMismatch, "credentials do not match the organization in the path")
	}
	return nil
}

// RequireOrgPath returns middleware that rejects requests whose tenant
// differs from the {param} route segment. It must run after the auth gate
// and before any resource lookup.
func RequireOrgPath(param string, errs apierr.Responder) func(http.Handler) http.Handler {
	if param == "" {
		param = DefaultParam
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, ok := tenant.FromRequest(r)
			if !ok {
				errs.Write(w, r, apierr.Auth(apierr.ReasonUnrecognizedFormat, "authentication required"))
				return
			}
			if err := Check(t, chi.URLParam(r, param)); err != nil {
				errs.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
