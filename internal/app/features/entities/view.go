// internal/app/features/entities/view.go
package entities

import (
	"errors"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeEntity returns one entity.
//
// Route: GET /organizations/{orgName}/collections/{collectionName}/entities/{entityId}
func (h *Handler) ServeEntity(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)

	ctx, cancel := timeouts.Detached(r, timeouts.Short())
	defer cancel()

	c, err := h.collection(ctx, t.OrganizationID, chi.URLParam(r, CollectionParam))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	e, err := h.Store.Entities.Get(ctx, t.OrganizationID, c.CollectionID, chi.URLParam(r, IDParam))
	if errors.Is(err, store.ErrNotFound) {
		h.Errors.Write(w, r, apierr.NotFound("entity not found"))
		return
	}
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("load entity", err))
		return
	}
	jsonbody.Write(w, http.StatusOK, entityResponse{Entity: e})
}
