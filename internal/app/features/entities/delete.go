// internal/app/features/entities/delete.go
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
	"go.uber.org/zap"
)

// HandleDelete removes one entity.
//
// Route: DELETE .../entities/{entityId}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)
	entityID := chi.URLParam(r, IDParam)

	ctx, cancel := timeouts.Detached(r, timeouts.Short())
	defer cancel()

	c, err := h.collection(ctx, t.OrganizationID, chi.URLParam(r, CollectionParam))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	err = h.Store.Entities.Delete(ctx, t.OrganizationID, c.CollectionID, entityID)
	if errors.Is(err, store.ErrNotFound) {
		h.Errors.Write(w, r, apierr.NotFound("entity not found"))
		return
	}
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("delete entity", err))
		return
	}

	h.Log.Debug("entity deleted",
		zap.String("collection_id", c.CollectionID),
		zap.String("entity_id", entityID))

	jsonbody.Message(w, http.StatusOK, "Entity successfully deleted.")
}
