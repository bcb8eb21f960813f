// internal/app/store/collections/collectionstore.go
package collectionstore

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

// Store persists collection metadata in the collections collection.
type Store struct {
	c *mongo.Collection
}

var _ store.Collections = (*Store)(nil)

// New returns a Store backed by db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(indexes.Collections)}
}

// Create inserts c with a fresh _id; a name or collectionId clash is
// store.ErrDuplicate.
func (s *Store) Create(ctx context.Context, c models.Collection) (models.Collection, error) {
	c.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Collection{}, store.ErrDuplicate
		}
		return models.Collection{}, err
	}
	return c, nil
}

// Get looks a collection up by name within the organization.
func (s *Store) Get(ctx context.Context, organizationID, name string) (models.Collection, error) {
	var c models.Collection
	err := s.c.FindOne(ctx, bson.D{
		{Key: "organizationId", Value: organizationID},
		{Key: "name", Value: name},
	}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Collection{}, store.ErrNotFound
	}
	if err != nil {
		return models.Collection{}, err
	}
	return c, nil
}

// ReplaceIfToken replaces the stored collection only while its
// dateTimeLastUpdated still equals prev.
func (s *Store) ReplaceIfToken(ctx context.Context, c models.Collection, prev int64) error {
	res, err := s.c.ReplaceOne(ctx, bson.D{
		{Key: "_id", Value: c.ID},
		{Key: "organizationId", Value: c.OrganizationID},
		{Key: "dateTimeLastUpdated", Value: prev},
	}, c)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return store.ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrConflict
	}
	return nil
}

// Page returns one page of the organization's collections in _id order.
func (s *Store) Page(ctx context.Context, q store.Query) ([]models.Collection, error) {
	filter, opts := store.PageFind(bson.D{{Key: "organizationId", Value: q.OrganizationID}}, q)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Collection{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, organizationID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"organizationId": organizationID})
}

// Delete removes one collection, or returns store.ErrNotFound.
func (s *Store) Delete(ctx context.Context, organizationID, collectionID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"organizationId": organizationID, "collectionId": collectionID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByOrganization(ctx context.Context, organizationID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"organizationId": organizationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
