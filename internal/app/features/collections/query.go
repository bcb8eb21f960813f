// internal/app/features/collections/query.go
package collections

import (
	"net/http"
	"strings"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/filter"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/paging"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// topLevel lists the stored collection fields a filter may address by name.
var topLevel = map[string]bool{
	"name":                true,
	"collectionId":        true,
	"creator":             true,
	"organization":        true,
	"organizationId":      true,
	"dateTimeLastUpdated": true,
}

// fieldPath maps a client filter field onto the stored collection document.
// The collection's own fields match themselves; anything else is a
// description key.
func fieldPath(field string) (string, bool) {
	switch {
	case topLevel[field]:
		return field, true
	case field == "description", strings.HasPrefix(field, "description."):
		return field, true
	default:
		return "description." + field, true
	}
}

// HandleQuery pages through the organization's collections matching the
// filter document in the body.
//
// Route: POST /organizations/{orgName}/collections/queries?limit=&next=
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	doc, err := jsonbody.DecodeMap(w, r, h.MaxBody)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	f, err := filter.Parse(doc, fieldPath)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	h.servePage(w, r, f)
}

// ServeList is HandleQuery with the filter taken from the query string.
//
// Route: GET /organizations/{orgName}/collections?limit=&next=&field[op]:type=value
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	doc, err := filter.FromQuery(r.URL.Query(), "limit", "next")
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	f, err := filter.Parse(doc, fieldPath)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	h.servePage(w, r, f)
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, f filter.Filter) {
	t, _ := tenant.FromRequest(r)

	p, err := paging.Parse(r, h.Paging)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.Detached(r, timeouts.Medium())
	defer cancel()

	rows, err := h.Store.Collections.Page(ctx, store.Query{
		OrganizationID: t.OrganizationID,
		Filter:         f,
		After:          p.After,
		Limit:          p.FetchLimit(),
	})
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("query collections", err))
		return
	}
	page := paging.TrimPage(rows, p.Limit, func(c models.Collection) primitive.ObjectID { return c.ID })

	if len(page.Items) > 0 {
		counts, err := h.Store.Entities.CountByCollection(ctx, t.OrganizationID)
		if err != nil {
			h.Errors.Write(w, r, apierr.Storage("count entities", err))
			return
		}
		for i := range page.Items {
			page.Items[i].NumEntities = counts[page.Items[i].CollectionID]
		}
	}

	jsonbody.Write(w, http.StatusOK, listResponse{Collections: page.Items, Next: page.Next})
}
