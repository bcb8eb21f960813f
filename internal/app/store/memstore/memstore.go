// Package memstore implements the store contracts in process memory.
// Data is lost on restart and is not shared between processes; it backs
// the "memory" store_backend and the handler tests.
package memstore

import (
	"bytes"
	"context"
	"sync"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all three record kinds behind one lock so cascades observe a
// consistent view.
type Store struct {
	mu sync.RWMutex

	orgs        []models.Organization // insertion (= _id) order
	collections []models.Collection
	entities    []models.Entity
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Backend wires the store into a store.Backend.
func (s *Store) Backend() store.Backend {
	return store.Backend{
		Orgs:        orgStore{s},
		Collections: collectionStore{s},
		Entities:    entityStore{s},
		Tx:          s,
		Name:        "memory",
		Ping:        func(context.Context) error { return nil },
	}
}

// InTx runs fn directly. Individual operations are atomic; a failing fn
// leaves earlier writes in place, same as a Mongo standalone server.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func after(id, cursor primitive.ObjectID) bool {
	return cursor.IsZero() || bytes.Compare(id[:], cursor[:]) > 0
}

/* -------------------------------------------------------------------------- */
/* Organizations                                                               */
/* -------------------------------------------------------------------------- */

type orgStore struct{ s *Store }

var _ store.Organizations = orgStore{}

func (o orgStore) Create(_ context.Context, org models.Organization) (models.Organization, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orgs {
		if existing.Organization == org.Organization || existing.OrganizationID == org.OrganizationID {
			return models.Organization{}, store.ErrDuplicate
		}
	}
	org.ID = primitive.NewObjectID()
	s.orgs = append(s.orgs, org)
	return org, nil
}

func (o orgStore) GetByID(_ context.Context, organizationID string) (models.Organization, error) {
	return o.find(func(org models.Organization) bool { return org.OrganizationID == organizationID })
}

func (o orgStore) GetByName(_ context.Context, name string) (models.Organization, error) {
	return o.find(func(org models.Organization) bool { return org.Organization == name })
}

func (o orgStore) find(pred func(models.Organization) bool) (models.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	for _, org := range o.s.orgs {
		if pred(org) {
			return org, nil
		}
	}
	return models.Organization{}, store.ErrNotFound
}

func (o orgStore) Delete(_ context.Context, organizationID string) error {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, org := range s.orgs {
		if org.OrganizationID == organizationID {
			s.orgs = append(s.orgs[:i], s.orgs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

/* -------------------------------------------------------------------------- */
/* Collections                                                                 */
/* -------------------------------------------------------------------------- */

type collectionStore struct{ s *Store }

var _ store.Collections = collectionStore{}

func cloneCollection(c models.Collection) models.Collection {
	c.Description = c.Description.Clone()
	c.CollectionSchema = append(models.Schema(nil), c.CollectionSchema...)
	return c
}

// collectionDoc is the shape filter.Match sees, mirroring the stored BSON fields.
func collectionDoc(c models.Collection) map[string]interface{} {
	doc := map[string]interface{}{
		"name":                c.Name,
		"collectionId":        c.CollectionID,
		"creator":             c.Creator,
		"organization":        c.Organization,
		"organizationId":      c.OrganizationID,
		"dateTimeLastUpdated": c.DateTimeLastUpdated,
	}
	if c.Description != nil {
		doc["description"] = map[string]interface{}(c.Description)
	}
	return doc
}

func (cs collectionStore) Create(_ context.Context, c models.Collection) (models.Collection, error) {
	s := cs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.collections {
		if existing.CollectionID == c.CollectionID ||
			(existing.OrganizationID == c.OrganizationID && existing.Name == c.Name) {
			return models.Collection{}, store.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	s.collections = append(s.collections, cloneCollection(c))
	return c, nil
}

func (cs collectionStore) Get(_ context.Context, organizationID, name string) (models.Collection, error) {
	s := cs.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		if c.OrganizationID == organizationID && c.Name == name {
			return cloneCollection(c), nil
		}
	}
	return models.Collection{}, store.ErrNotFound
}

func (cs collectionStore) ReplaceIfToken(_ context.Context, c models.Collection, prev int64) error {
	s := cs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.collections {
		if existing.ID == c.ID && existing.OrganizationID == c.OrganizationID {
			if existing.DateTimeLastUpdated != prev {
				return store.ErrConflict
			}
			s.collections[i] = cloneCollection(c)
			return nil
		}
	}
	return store.ErrConflict
}

func (cs collectionStore) Page(_ context.Context, q store.Query) ([]models.Collection, error) {
	s := cs.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Collection{}
	for _, c := range s.collections {
		if q.Limit > 0 && int64(len(out)) >= q.Limit {
			break
		}
		if c.OrganizationID != q.OrganizationID || !after(c.ID, q.After) {
			continue
		}
		if !q.Filter.Match(collectionDoc(c)) {
			continue
		}
		out = append(out, cloneCollection(c))
	}
	return out, nil
}

func (cs collectionStore) Count(_ context.Context, organizationID string) (int64, error) {
	s := cs.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.collections {
		if c.OrganizationID == organizationID {
			n++
		}
	}
	return n, nil
}

func (cs collectionStore) Delete(_ context.Context, organizationID, collectionID string) error {
	s := cs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.collections {
		if c.OrganizationID == organizationID && c.CollectionID == collectionID {
			s.collections = append(s.collections[:i], s.collections[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (cs collectionStore) DeleteByOrganization(_ context.Context, organizationID string) (int64, error) {
	s := cs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.collections[:0]
	var n int64
	for _, c := range s.collections {
		if c.OrganizationID == organizationID {
			n++
			continue
		}
		kept = append(kept, c)
	}
	s.collections = kept
	return n, nil
}

/* -------------------------------------------------------------------------- */
/* Entities                                                                    */
/* -------------------------------------------------------------------------- */

type entityStore struct{ s *Store }

var _ store.Entities = entityStore{}

func cloneEntity(e models.Entity) models.Entity {
	e.Data = e.Data.Clone()
	if e.Data == nil {
		e.Data = models.Document{}
	}
	return e
}

func (es entityStore) Create(_ context.Context, e models.Entity) (models.Entity, error) {
	s := es.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entities {
		if existing.EntityID == e.EntityID {
			return models.Entity{}, store.ErrDuplicate
		}
	}
	e.ID = primitive.NewObjectID()
	e = cloneEntity(e)
	s.entities = append(s.entities, e)
	return cloneEntity(e), nil
}

func (es entityStore) Get(_ context.Context, organizationID, collectionID, entityID string) (models.Entity, error) {
	s := es.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entities {
		if e.OrganizationID == organizationID && e.CollectionID == collectionID && e.EntityID == entityID {
			return cloneEntity(e), nil
		}
	}
	return models.Entity{}, store.ErrNotFound
}

func (es entityStore) ReplaceIfToken(_ context.Context, e models.Entity, prev int64) error {
	s := es.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.entities {
		if existing.ID == e.ID && existing.OrganizationID == e.OrganizationID && existing.CollectionID == e.CollectionID {
			if existing.DateTimeLastUpdated != prev {
				return store.ErrConflict
			}
			s.entities[i] = cloneEntity(e)
			return nil
		}
	}
	return store.ErrConflict
}

func (es entityStore) Page(_ context.Context, q store.Query) ([]models.Entity, error) {
	s := es.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Entity{}
	for _, e := range s.entities {
		if q.Limit > 0 && int64(len(out)) >= q.Limit {
			break
		}
		if e.OrganizationID != q.OrganizationID || e.CollectionID != q.CollectionID || !after(e.ID, q.After) {
			continue
		}
		if !q.Filter.Match(map[string]interface{}{"data": map[string]interface{}(e.Data)}) {
			continue
		}
		out = append(out, cloneEntity(e))
	}
	return out, nil
}

func (es entityStore) Count(_ context.Context, organizationID, collectionID string) (int64, error) {
	s := es.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.entities {
		if e.OrganizationID == organizationID && e.CollectionID == collectionID {
			n++
		}
	}
	return n, nil
}

func (es entityStore) CountByCollection(_ context.Context, organizationID string) (map[string]int64, error) {
	s := es.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64)
	for _, e := range s.entities {
		if e.OrganizationID == organizationID {
			out[e.CollectionID]++
		}
	}
	return out, nil
}

func (es entityStore) Delete(_ context.Context, organizationID, collectionID, entityID string) error {
	s := es.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entities {
		if e.OrganizationID == organizationID && e.CollectionID == collectionID && e.EntityID == entityID {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (es entityStore) DeleteByCollection(_ context.Context, organizationID, collectionID string) (int64, error) {
	return es.deleteWhere(func(e models.Entity) bool {
		return e.OrganizationID == organizationID && e.CollectionID == collectionID
	}), nil
}

func (es entityStore) DeleteByOrganization(_ context.Context, organizationID string) (int64, error) {
	return es.deleteWhere(func(e models.Entity) bool { return e.OrganizationID == organizationID }), nil
}

func (es entityStore) deleteWhere(pred func(models.Entity) bool) int64 {
	s := es.s
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entities[:0]
	var n int64
	for _, e := range s.entities {
		if pred(e) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.entities = kept
	return n
}

// Len reports the number of stored records of each kind.
func (s *Store) Len() (orgs, collections, entities int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orgs), len(s.collections), len(s.entities)
}
