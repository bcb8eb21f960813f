// internal/app/features/entities/query.go
package entities

import (
	"net/http"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/filter"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/paging"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter fields address keys inside data.
var dataField = filter.Prefix("data")

// HandleQuery pages through a collection's entities matching the filter
// document in the body.
//
// Route: POST .../entities/queries?limit=&next=
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	doc, err := jsonbody.DecodeMap(w, r, h.MaxBody)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	f, err := filter.Parse(doc, dataField)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	h.servePage(w, r, f)
}

// ServeList is HandleQuery with the filter taken from the query string.
//
// Route: GET .../entities?limit=&next=&field[op]:type=value
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	doc, err := filter.FromQuery(r.URL.Query(), "limit", "next")
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	f, err := filter.Parse(doc, dataField)
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

	c, err := h.collection(ctx, t.OrganizationID, chi.URLParam(r, CollectionParam))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	rows, err := h.Store.Entities.Page(ctx, store.Query{
		OrganizationID: t.OrganizationID,
		CollectionID:   c.CollectionID,
		Filter:         f,
		After:          p.After,
		Limit:          p.FetchLimit(),
	})
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("query entities", err))
		return
	}
	page := paging.TrimPage(rows, p.Limit, func(e models.Entity) primitive.ObjectID { return e.ID })
	jsonbody.Write(w, http.StatusOK, listResponse{Entities: page.Items, Next: page.Next})
}
