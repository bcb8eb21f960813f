// internal/app/features/collections/create.go
package collections

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/inputval"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/normalize"
	"github.com/dalemusser/rentity/internal/app/system/schema"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type createInput struct {
	Name             string                 `json:"name" validate:"notblank"`
	CollectionSchema json.RawMessage        `json:"collectionSchema"`
	Schema           json.RawMessage        `json:"schema"` // legacy alias
	Description      map[string]interface{} `json:"description"`
}

func (in createInput) rawSchema() models.Schema {
	if s := models.Schema(in.CollectionSchema); !s.IsZero() {
		return s
	}
	return models.Schema(in.Schema)
}

// HandleCreate creates a collection in the caller's organization.
//
// Route: POST /organizations/{orgName}/collections
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)

	var in createInput
	if err := jsonbody.Decode(w, r, h.MaxBody, &in); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	in.Name = normalize.ResourceName(in.Name)
	if verrs := inputval.Struct(in); verrs != nil {
		h.Errors.Write(w, r, apierr.Validation(apierr.ReasonMissingFields,
			"missing required fields: "+strings.Join(verrs.Fields(), ", ")))
		return
	}
	if in.Name == ReservedName {
		h.Errors.Write(w, r, apierr.Validation(apierr.ReasonReservedName, "collection name "+in.Name+" is reserved"))
		return
	}
	if strings.Contains(in.Name, "/") {
		h.Errors.Write(w, r, apierr.Validation(apierr.ReasonInvalidBody, "collection names cannot contain '/'"))
		return
	}
	if err := jsonbody.CheckKeys(in.Description); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	raw := in.rawSchema()
	if err := schema.Check(raw); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.Detached(r, timeouts.Short())
	defer cancel()

	if _, err := h.Store.Collections.Get(ctx, t.OrganizationID, in.Name); err == nil {
		h.Errors.Write(w, r, duplicateName(in.Name))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.Errors.Write(w, r, apierr.Storage("check collection name", err))
		return
	}

	c := models.Collection{
		Name:                in.Name,
		CollectionID:        uuid.NewString(),
		Creator:             t.CreatedBy,
		OrganizationID:      t.OrganizationID,
		Organization:        t.Organization,
		DateTimeLastUpdated: h.Now().UnixMilli(),
	}
	if !raw.IsZero() {
		c.CollectionSchema = raw
	}
	if in.Description != nil {
		c.Description = models.Document(in.Description)
	}

	created, err := h.Store.Collections.Create(ctx, c)
	if errors.Is(err, store.ErrDuplicate) {
		h.Errors.Write(w, r, duplicateName(in.Name))
		return
	}
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("create collection", err))
		return
	}

	h.Log.Info("collection created",
		zap.String("organization_id", t.OrganizationID),
		zap.String("collection", created.Name),
		zap.String("collection_id", created.CollectionID))
	h.Audit.CollectionCreated(ctx, r, t.OrganizationID, created.CollectionID, created.Name)

	jsonbody.Write(w, http.StatusCreated, collectionResponse{Collection: created})
}

func duplicateName(name string) error {
	return apierr.Duplicate(http.StatusBadRequest, "a collection named "+name+" already exists")
}
