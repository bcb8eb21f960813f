// internal/app/features/collections/handler.go
package collections

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/auditlog"
	"github.com/dalemusser/rentity/internal/app/system/paging"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.uber.org/zap"
)

// Route parameters.
const (
	NameParam  = "collectionName"
	TokenParam = "dateTimeLastUpdated"
)

// ReservedName cannot be used as a collection name; it would shadow the
// query route.
const ReservedName = "queries"

// Handler is the feature-level entry point for Collections.
type Handler struct {
	Store   store.Backend
	Errors  apierr.Responder
	Log     *zap.Logger
	Paging  paging.Config
	MaxBody int64
	Now     func() time.Time

	// Audit records creations and deletions; nil disables it.
	Audit *auditlog.Logger
}

// NewHandler constructs a Collections handler.
func NewHandler(b store.Backend, errs apierr.Responder, pg paging.Config, maxBody int64, logger *zap.Logger) *Handler {
	return &Handler{
		Store:   b,
		Errors:  errs,
		Log:     logger,
		Paging:  pg,
		MaxBody: maxBody,
		Now:     time.Now,
	}
}

type collectionResponse struct {
	Collection models.Collection `json:"collection"`
}

type listResponse struct {
	Collections []models.Collection `json:"collections"`
	Next        string              `json:"next,omitempty"`
}

func (h *Handler) load(ctx context.Context, organizationID, name string) (models.Collection, error) {
	c, err := h.Store.Collections.Get(ctx, organizationID, name)
	if errors.Is(err, store.ErrNotFound) {
		return c, apierr.NotFound("collection not found")
	}
	if err != nil {
		return c, apierr.Storage("load collection", err)
	}
	return c, nil
}

// withCount fills the live entity counter.
func (h *Handler) withCount(ctx context.Context, c models.Collection) (models.Collection, error) {
	n, err := h.Store.Entities.Count(ctx, c.OrganizationID, c.CollectionID)
	if err != nil {
		return c, apierr.Storage("count entities", err)
	}
	c.NumEntities = n
	return c, nil
}
