// internal/app/features/collections/delete.go
package collections

import (
	"errors"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/cascade"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type deleteResponse struct {
	Message  string `json:"message"`
	Entities int64  `json:"entities"`
}

// HandleDelete removes a collection and every entity in it.
//
// Route: DELETE /organizations/{orgName}/collections/{collectionName}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)

	ctx, cancel := timeouts.Detached(r, timeouts.Long())
	defer cancel()

	c, err := h.load(ctx, t.OrganizationID, chi.URLParam(r, NameParam))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	res, err := cascade.Collection(ctx, h.Store, t.OrganizationID, c.CollectionID)
	if errors.Is(err, store.ErrNotFound) {
		// Lost a race with another delete of the same collection.
		h.Errors.Write(w, r, apierr.NotFound("collection not found"))
		return
	}
	if err != nil {
		h.Log.Error("collection delete incomplete; retry the DELETE to finish",
			zap.String("organization_id", t.OrganizationID),
			zap.String("collection", c.Name),
			zap.String("collection_id", c.CollectionID),
			zap.Int64("entities_deleted", res.Entities),
			zap.Error(err))
		h.Errors.Write(w, r, apierr.Storage("delete collection", err))
		return
	}

	h.Log.Info("collection deleted",
		zap.String("organization_id", t.OrganizationID),
		zap.String("collection_id", c.CollectionID),
		zap.Int64("entities", res.Entities))
	h.Audit.CollectionDeleted(ctx, r, t.OrganizationID, c.CollectionID, c.Name, res.Entities)

	jsonbody.Write(w, http.StatusOK, deleteResponse{
		Message:  "Collection successfully deleted.",
		Entities: res.Entities,
	})
}
