// internal/app/features/collections/patch.go
package collections

import (
	"context"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/occ"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandlePatch merges the body's top-level keys into the collection's
// description. The URL token must equal the stored dateTimeLastUpdated.
//
// Route: PATCH /organizations/{orgName}/collections/{collectionName}/{dateTimeLastUpdated}
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)
	name := chi.URLParam(r, NameParam)

	patch, err := jsonbody.DecodeObject(w, r, h.MaxBody)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.Detached(r, timeouts.Short())
	defer cancel()

	updated, err := occ.Update(ctx, chi.URLParam(r, TokenParam), patch, h.Now, occ.Target[models.Collection]{
		Load: func(ctx context.Context) (models.Collection, error) {
			return h.Store.Collections.Get(ctx, t.OrganizationID, name)
		},
		Document: func(c *models.Collection) *models.Document { return &c.Description },
		Token:    func(c *models.Collection) *int64 { return &c.DateTimeLastUpdated },
		Replace:  h.Store.Collections.ReplaceIfToken,
		NotFound: "collection not found",
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	h.Log.Debug("collection updated",
		zap.String("collection_id", updated.CollectionID),
		zap.Int64("dateTimeLastUpdated", updated.DateTimeLastUpdated))

	if updated, err = h.withCount(ctx, updated); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	jsonbody.Write(w, http.StatusOK, collectionResponse{Collection: updated})
}
