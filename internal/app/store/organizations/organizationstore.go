// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/indexes"
	"github.com/dalemusser/rentity/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var _ store.Organizations = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(indexes.Organizations)}
}

// Create inserts org. The caller supplies OrganizationID and the normalized
// name; a name already in use returns store.ErrDuplicate.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	org.ID = primitive.NewObjectID()
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, store.ErrDuplicate
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, organizationID string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"organizationId": organizationID})
}

func (s *Store) GetByName(ctx context.Context, name string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"organization": name})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, filter).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, store.ErrNotFound
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// Delete removes the organization record only; callers cascade to its
// collections and entities first.
func (s *Store) Delete(ctx context.Context, organizationID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"organizationId": organizationID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
