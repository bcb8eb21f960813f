// internal/app/store/store.go
//
// Package store declares the persistence contracts shared by the Mongo
// stores (organizations, collections, entities) and the in-memory backend.
package store

import (
	"context"
	"errors"

	"github.com/dalemusser/rentity/internal/app/system/filter"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no record matches the scoped lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (organization name,
	// organization + collection name) is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned by conditional replaces when the stored
	// dateTimeLastUpdated no longer equals the expected value.
	ErrConflict = errors.New("record changed concurrently")
)

// Query is one tenant-scoped page request. Records are returned in
// ascending _id order starting after After (zero: from the beginning).
type Query struct {
	OrganizationID string
	CollectionID   string // entities only
	Filter         filter.Filter
	After          primitive.ObjectID
	Limit          int64
}

// Organizations persists tenant roots.
type Organizations interface {
	Create(ctx context.Context, org models.Organization) (models.Organization, error)
	GetByID(ctx context.Context, organizationID string) (models.Organization, error)
	GetByName(ctx context.Context, name string) (models.Organization, error)
	Delete(ctx context.Context, organizationID string) error
}

// Collections persists collections. Every method is scoped by organization.
type Collections interface {
	Create(ctx context.Context, c models.Collection) (models.Collection, error)
	Get(ctx context.Context, organizationID, name string) (models.Collection, error)
	// ReplaceIfToken writes c only if the stored dateTimeLastUpdated equals
	// prev; otherwise it returns ErrConflict.
	ReplaceIfToken(ctx context.Context, c models.Collection, prev int64) error
	Page(ctx context.Context, q Query) ([]models.Collection, error)
	Count(ctx context.Context, organizationID string) (int64, error)
	Delete(ctx context.Context, organizationID, collectionID string) error
	DeleteByOrganization(ctx context.Context, organizationID string) (int64, error)
}

// Entities persists entities. Every method is scoped by organization and,
// where it applies, collection.
type Entities interface {
	Create(ctx context.Context, e models.Entity) (models.Entity, error)
	Get(ctx context.Context, organizationID, collectionID, entityID string) (models.Entity, error)
	ReplaceIfToken(ctx context.Context, e models.Entity, prev int64) error
	Page(ctx context.Context, q Query) ([]models.Entity, error)
	Count(ctx context.Context, organizationID, collectionID string) (int64, error)
	// CountByCollection returns entity counts keyed by collectionId.
	CountByCollection(ctx context.Context, organizationID string) (map[string]int64, error)
	Delete(ctx context.Context, organizationID, collectionID, entityID string) error
	DeleteByCollection(ctx context.Context, organizationID, collectionID string) (int64, error)
	DeleteByOrganization(ctx context.Context, organizationID string) (int64, error)
}

// Tx runs fn atomically when the backend supports it. Implementations that
// cannot provide atomicity run fn once, directly.
type Tx interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Backend bundles the stores a request handler needs.
type Backend struct {
	Orgs        Organizations
	Collections Collections
	Entities    Entities
	Tx          Tx
	// Name identifies the backend in health output ("mongodb", "memory").
	Name string
	Ping func(ctx context.Context) error
}
