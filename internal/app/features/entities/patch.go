// internal/app/features/entities/patch.go
package entities

import (
	"context"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/occ"
	"github.com/dalemusser/rentity/internal/app/system/schema"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// HandlePatch merges the body's top-level keys into the entity's data,
// re-validating the result against the collection schema before the
// conditional write.
//
// Route: PATCH .../entities/{entityId}/{dateTimeLastUpdated}
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)
	entityID := chi.URLParam(r, IDParam)

	patch, err := jsonbody.DecodeObject(w, r, h.MaxBody)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.Detached(r, timeouts.Short())
	defer cancel()

	c, err := h.collection(ctx, t.OrganizationID, chi.URLParam(r, CollectionParam))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	updated, err := occ.Update(ctx, chi.URLParam(r, TokenParam), patch, h.Now, occ.Target[models.Entity]{
		Load: func(ctx context.Context) (models.Entity, error) {
			return h.Store.Entities.Get(ctx, t.OrganizationID, c.CollectionID, entityID)
		},
		Document: func(e *models.Entity) *models.Document { return &e.Data },
		Token:    func(e *models.Entity) *int64 { return &e.DateTimeLastUpdated },
		Validate: func(_ context.Context, e models.Entity) error {
			return schema.Validate(c.CollectionSchema, e.Data)
		},
		Replace:  h.Store.Entities.ReplaceIfToken,
		NotFound: "entity not found",
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	jsonbody.Write(w, http.StatusOK, entityResponse{Entity: updated})
}
