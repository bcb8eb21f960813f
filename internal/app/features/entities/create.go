// internal/app/features/entities/create.go
package entities

import (
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/schema"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HandleCreate stores the request body as a new entity's data. When the
// collection declares a schema the data must satisfy it; nothing is
// written otherwise.
//
// Route: POST /organizations/{orgName}/collections/{collectionName}/entities
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)

	data, err := jsonbody.DecodeObject(w, r, h.MaxBody)
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
	if err := schema.Validate(c.CollectionSchema, data); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	e, err := h.Store.Entities.Create(ctx, models.Entity{
		EntityID:            uuid.NewString(),
		Collection:          c.Name,
		CollectionID:        c.CollectionID,
		Organization:        t.Organization,
		OrganizationID:      t.OrganizationID,
		CreatedBy:           t.CreatedBy,
		DateTimeLastUpdated: h.Now().UnixMilli(),
		Data:                models.Document(data),
	})
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("create entity", err))
		return
	}

	jsonbody.Write(w, http.StatusCreated, entityResponse{Entity: e})
}
