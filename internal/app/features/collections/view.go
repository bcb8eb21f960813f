// internal/app/features/collections/view.go
package collections

import (
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeCollection returns one collection with its live entity count and
// current dateTimeLastUpdated token.
//
// Route: GET /organizations/{orgName}/collections/{collectionName}
func (h *Handler) ServeCollection(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)

	ctx, cancel := timeouts.Detached(r, timeouts.Short())
	defer cancel()

	c, err := h.load(ctx, t.OrganizationID, chi.URLParam(r, NameParam))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	if c, err = h.withCount(ctx, c); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	jsonbody.Write(w, http.StatusOK, collectionResponse{Collection: c})
}
