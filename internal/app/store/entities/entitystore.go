// internal/app/store/entities/entitystore.go
package entitystore

import (
	"context"
	"errors"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/counts"
	"github.com/dalemusser/rentity/internal/app/system/indexes"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store persists entities in the entities collection.
type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

var _ store.Entities = (*Store)(nil)

// New returns a Store backed by db.
func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection(indexes.Entities)}
}

// scope is the tenant and collection part of every entity filter.
func scope(organizationID, collectionID string) bson.D {
	return bson.D{
		{Key: "organizationId", Value: organizationID},
		{Key: "collectionId", Value: collectionID},
	}
}

// Create inserts e with a fresh _id. A nil Data is stored as {}.
func (s *Store) Create(ctx context.Context, e models.Entity) (models.Entity, error) {
	e.ID = primitive.NewObjectID()
	if e.Data == nil {
		e.Data = models.Document{}
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Entity{}, err
	}
	return e, nil
}

// Get returns the entity with entityID, or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, organizationID, collectionID, entityID string) (models.Entity, error) {
	var e models.Entity
	f := append(scope(organizationID, collectionID), bson.E{Key: "entityId", Value: entityID})
	err := s.c.FindOne(ctx, f).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Entity{}, store.ErrNotFound
	}
	if err != nil {
		return models.Entity{}, err
	}
	return e, nil
}

// ReplaceIfToken replaces the stored entity only while its
// dateTimeLastUpdated still equals prev; otherwise store.ErrConflict.
func (s *Store) ReplaceIfToken(ctx context.Context, e models.Entity, prev int64) error {
	f := append(scope(e.OrganizationID, e.CollectionID),
		bson.E{Key: "_id", Value: e.ID},
		bson.E{Key: "dateTimeLastUpdated", Value: prev},
	)
	res, err := s.c.ReplaceOne(ctx, f, e)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrConflict
	}
	return nil
}

// Page returns one page of the collection's entities in _id order.
func (s *Store) Page(ctx context.Context, q store.Query) ([]models.Entity, error) {
	filter, opts := store.PageFind(scope(q.OrganizationID, q.CollectionID), q)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Entity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many entities the collection holds.
func (s *Store) Count(ctx context.Context, organizationID, collectionID string) (int64, error) {
	return s.c.CountDocuments(ctx, scope(organizationID, collectionID))
}

// CountByCollection returns entity counts keyed by collectionId.
func (s *Store) CountByCollection(ctx context.Context, organizationID string) (map[string]int64, error) {
	return counts.ByField(ctx, s.db, indexes.Entities, bson.M{"organizationId": organizationID}, "collectionId")
}

// Delete removes one entity, or returns store.ErrNotFound.
func (s *Store) Delete(ctx context.Context, organizationID, collectionID, entityID string) error {
	f := append(scope(organizationID, collectionID), bson.E{Key: "entityId", Value: entityID})
	res, err := s.c.DeleteOne(ctx, f)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteByCollection removes every entity in the collection.
func (s *Store) DeleteByCollection(ctx context.Context, organizationID, collectionID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, scope(organizationID, collectionID))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByOrganization removes every entity the organization owns.
func (s *Store) DeleteByOrganization(ctx context.Context, organizationID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"organizationId": organizationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
