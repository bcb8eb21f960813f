package collectionstore_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/rentity/internal/app/store"
	collectionstore "github.com/dalemusser/rentity/internal/app/store/collections"
	"github.com/dalemusser/rentity/internal/app/system/filter"
	"github.com/dalemusser/rentity/internal/app/system/indexes"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/dalemusser/rentity/internal/testutil"
)

func newCollection(org, id, name string) models.Collection {
	return models.Collection{
		Name:                name,
		CollectionID:        id,
		Creator:             org,
		OrganizationID:      org,
		Organization:        org + "-name",
		DateTimeLastUpdated: 1000,
		CollectionSchema:    models.Schema(`{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object"}`),
		Description:         models.Document{"color": "red", "meta": map[string]interface{}{"size": 3.0}},
	}
}

func TestStore_CreateGetRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := collectionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Create(ctx, newCollection("o1", "c1", "widgets")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := s.Get(ctx, "o1", "widgets")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.HasSchema() {
		t.Error("expected schema to survive the round trip")
	}
	meta, ok := got.Description["meta"].(map[string]interface{})
	if !ok || meta["size"] != 3.0 {
		t.Errorf("description = %#v, want plain nested map", got.Description)
	}

	if _, err := s.Get(ctx, "o2", "widgets"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get from another org err = %v, want ErrNotFound", err)
	}
}

func TestStore_CreateDuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	s := collectionstore.New(db)

	if _, err := s.Create(ctx, newCollection("o1", "c1", "widgets")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(ctx, newCollection("o1", "c2", "widgets")); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate Create err = %v, want ErrDuplicate", err)
	}
	if _, err := s.Create(ctx, newCollection("o2", "c3", "widgets")); err != nil {
		t.Errorf("same name in another org failed: %v", err)
	}
}

func TestStore_ReplaceIfToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := collectionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := s.Create(ctx, newCollection("o1", "c1", "widgets"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	c.Description = models.Document{"color": "blue"}
	c.DateTimeLastUpdated = 2000
	if err := s.ReplaceIfToken(ctx, c, 1000); err != nil {
		t.Fatalf("ReplaceIfToken failed: %v", err)
	}

	// The stored token is now 2000; a writer still holding 1000 loses.
	c.DateTimeLastUpdated = 3000
	if err := s.ReplaceIfToken(ctx, c, 1000); !errors.Is(err, store.ErrConflict) {
		t.Errorf("stale ReplaceIfToken err = %v, want ErrConflict", err)
	}

	got, _ := s.Get(ctx, "o1", "widgets")
	if got.DateTimeLastUpdated != 2000 || got.Description["color"] != "blue" {
		t.Errorf("stored collection = %+v", got)
	}
}

func TestStore_PageAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := collectionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.Create(ctx, newCollection("o1", "id-"+name, name)); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}
	if _, err := s.Create(ctx, newCollection("o2", "id-x", "x")); err != nil {
		t.Fatalf("Create x failed: %v", err)
	}

	first, err := s.Page(ctx, store.Query{OrganizationID: "o1", Limit: 2})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(first) != 2 || first[0].Name != "a" || first[1].Name != "b" {
		t.Fatalf("first page = %+v", first)
	}
	rest, err := s.Page(ctx, store.Query{OrganizationID: "o1", After: first[1].ID, Limit: 2})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Name != "c" {
		t.Fatalf("second page = %+v", rest)
	}

	byName, err := s.Page(ctx, store.Query{
		OrganizationID: "o1",
		Filter:         filter.Filter{{Field: "name", Op: filter.Eq, Value: "b"}},
		Limit:          10,
	})
	if err != nil || len(byName) != 1 {
		t.Fatalf("filtered Page = %+v, %v", byName, err)
	}

	n, err := s.Count(ctx, "o1")
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v; want 3", n, err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := collectionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s.Create(ctx, newCollection("o1", "c1", "a"))
	s.Create(ctx, newCollection("o1", "c2", "b"))

	if err := s.Delete(ctx, "o2", "c1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-org Delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "o1", "c1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	n, err := s.DeleteByOrganization(ctx, "o1")
	if err != nil || n != 1 {
		t.Errorf("DeleteByOrganization = %d, %v; want 1", n, err)
	}
}
