// internal/app/features/entities/handler.go
package entities

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/paging"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.uber.org/zap"
)

// Route parameters. CollectionParam is set by the collections router this
// one is mounted under.
const (
	CollectionParam = "collectionName"
	IDParam         = "entityId"
	TokenParam      = "dateTimeLastUpdated"
)

// Handler is the feature-level entry point for Entities.
type Handler struct {
	Store   store.Backend
	Errors  apierr.Responder
	Log     *zap.Logger
	Paging  paging.Config
	MaxBody int64
	Now     func() time.Time
}

// NewHandler constructs an Entities handler.
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

type entityResponse struct {
	Entity models.Entity `json:"entity"`
}

type listResponse struct {
	Entities []models.Entity `json:"entities"`
	Next     string          `json:"next,omitempty"`
}

// collection resolves the owning collection; every entity route goes
// through it so an entity is never reachable outside its collection.
func (h *Handler) collection(ctx context.Context, organizationID, name string) (models.Collection, error) {
	c, err := h.Store.Collections.Get(ctx, organizationID, name)
	if errors.Is(err, store.ErrNotFound) {
		return c, apierr.NotFound("collection not found")
	}
	if err != nil {
		return c, apierr.Storage("load collection", err)
	}
	return c, nil
}
