// internal/app/features/organizations/delete.go
package organizations

import (
	"errors"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/cascade"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type deleteResponse struct {
	Message     string `json:"message"`
	Collections int64  `json:"collections"`
	Entities    int64  `json:"entities"`
}

// HandleDelete deletes the organization with all of its collections and
// entities. A failed cascade can be retried with the same request.
//
// Route: DELETE /organizations/{orgName}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)

	ctx, cancel := timeouts.Detached(r, timeouts.Long())
	defer cancel()

	if _, err := h.Store.Orgs.GetByID(ctx, t.OrganizationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Errors.Write(w, r, apierr.NotFound("organization not found"))
			return
		}
		h.Errors.Write(w, r, apierr.Storage("load organization", err))
		return
	}

	res, err := cascade.Organization(ctx, h.Store, t.OrganizationID)
	if err != nil {
		h.Log.Error("organization delete incomplete; retry the DELETE to finish",
			zap.String("organization", t.Organization),
			zap.String("organization_id", t.OrganizationID),
			zap.Error(err))
		h.Errors.Write(w, r, apierr.Storage("delete organization", err))
		return
	}

	h.Log.Info("organization deleted",
		zap.String("organization", t.Organization),
		zap.String("organization_id", t.OrganizationID),
		zap.Int64("collections", res.Collections),
		zap.Int64("entities", res.Entities))
	h.Audit.OrgDeleted(ctx, r, t.OrganizationID, t.Organization, res.Collections, res.Entities)

	jsonbody.Write(w, http.StatusOK, deleteResponse{
		Message:     "Organization successfully deleted.",
		Collections: res.Collections,
		Entities:    res.Entities,
	})
}
