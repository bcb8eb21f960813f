// internal/app/features/organizations/profile.go
package organizations

import (
	"errors"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
)

// ServeProfile returns the authenticated organization with live counts.
//
// Route: GET /organizations/{orgName}
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromRequest(r)

	ctx, cancel := timeouts.Detached(r, timeouts.Medium())
	defer cancel()

	org, err := h.Store.Orgs.GetByID(ctx, t.OrganizationID)
	if errors.Is(err, store.ErrNotFound) {
		h.Errors.Write(w, r, apierr.NotFound("organization not found"))
		return
	}
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("load organization", err))
		return
	}

	org.Collections, err = h.Store.Collections.Count(ctx, org.OrganizationID)
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("count collections", err))
		return
	}
	perCollection, err := h.Store.Entities.CountByCollection(ctx, org.OrganizationID)
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("count entities", err))
		return
	}
	for _, n := range perCollection {
		org.Entities += n
	}

	jsonbody.Write(w, http.StatusOK, accountResponse{Account: org})
}
