package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/filter"
	"github.com/dalemusser/rentity/internal/domain/models"
)

func TestOrganizations(t *testing.T) {
	b := New().Backend()
	ctx := context.Background()

	if _, err := b.Orgs.Create(ctx, models.Organization{OrganizationID: "o1", Organization: "acme"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := b.Orgs.Create(ctx, models.Organization{OrganizationID: "o2", Organization: "acme"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate name err = %v, want ErrDuplicate", err)
	}
	got, err := b.Orgs.GetByName(ctx, "acme")
	if err != nil || got.OrganizationID != "o1" || got.ID.IsZero() {
		t.Errorf("GetByName = %+v, %v", got, err)
	}
	if err := b.Orgs.Delete(ctx, "o1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := b.Orgs.GetByID(ctx, "o1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByID after delete err = %v, want ErrNotFound", err)
	}
}

func TestCollections_ReturnsCopies(t *testing.T) {
	b := New().Backend()
	ctx := context.Background()

	b.Collections.Create(ctx, models.Collection{
		OrganizationID: "o1", CollectionID: "c1", Name: "widgets",
		Description: models.Document{"color": "red"},
	})
	got, _ := b.Collections.Get(ctx, "o1", "widgets")
	got.Description["color"] = "blue"

	again, _ := b.Collections.Get(ctx, "o1", "widgets")
	if again.Description["color"] != "red" {
		t.Error("mutating a returned collection changed the stored one")
	}
}

func TestCollections_ReplaceIfToken(t *testing.T) {
	b := New().Backend()
	ctx := context.Background()

	c, _ := b.Collections.Create(ctx, models.Collection{
		OrganizationID: "o1", CollectionID: "c1", Name: "widgets", DateTimeLastUpdated: 10,
	})

	c.DateTimeLastUpdated = 20
	if err := b.Collections.ReplaceIfToken(ctx, c, 10); err != nil {
		t.Fatalf("ReplaceIfToken failed: %v", err)
	}
	c.DateTimeLastUpdated = 30
	if err := b.Collections.ReplaceIfToken(ctx, c, 10); !errors.Is(err, store.ErrConflict) {
		t.Errorf("stale ReplaceIfToken err = %v, want ErrConflict", err)
	}
	c.OrganizationID = "o2"
	if err := b.Collections.ReplaceIfToken(ctx, c, 20); !errors.Is(err, store.ErrConflict) {
		t.Errorf("cross-org ReplaceIfToken err = %v, want ErrConflict", err)
	}
}

func TestEntities_PageWithFilterAndCursor(t *testing.T) {
	b := New().Backend()
	ctx := context.Background()

	colors := []string{"red", "blue", "red", "red", "green"}
	for i, c := range colors {
		b.Entities.Create(ctx, models.Entity{
			OrganizationID: "o1", CollectionID: "c1",
			EntityID: string(rune('a' + i)),
			Data:     models.Document{"color": c, "n": float64(i)},
		})
	}
	b.Entities.Create(ctx, models.Entity{OrganizationID: "o2", CollectionID: "c1", EntityID: "z", Data: models.Document{"color": "red"}})

	f, err := filter.Parse(map[string]interface{}{"color": "red"}, filter.Prefix("data"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var seen []string
	q := store.Query{OrganizationID: "o1", CollectionID: "c1", Filter: f, Limit: 2}
	for {
		page, err := b.Entities.Page(ctx, q)
		if err != nil {
			t.Fatalf("Page failed: %v", err)
		}
		for _, e := range page {
			seen = append(seen, e.EntityID)
		}
		if int64(len(page)) < q.Limit {
			break
		}
		q.After = page[len(page)-1].ID
	}
	want := []string{"a", "c", "d"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestEntities_CountsAndDeletes(t *testing.T) {
	s := New()
	b := s.Backend()
	ctx := context.Background()

	for _, e := range []models.Entity{
		{OrganizationID: "o1", CollectionID: "c1", EntityID: "e1"},
		{OrganizationID: "o1", CollectionID: "c1", EntityID: "e2"},
		{OrganizationID: "o1", CollectionID: "c2", EntityID: "e3"},
		{OrganizationID: "o2", CollectionID: "c9", EntityID: "e4"},
	} {
		if _, err := b.Entities.Create(ctx, e); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	byColl, _ := b.Entities.CountByCollection(ctx, "o1")
	if byColl["c1"] != 2 || byColl["c2"] != 1 || len(byColl) != 2 {
		t.Errorf("CountByCollection = %v", byColl)
	}
	if n, _ := b.Entities.DeleteByCollection(ctx, "o1", "c1"); n != 2 {
		t.Errorf("DeleteByCollection = %d, want 2", n)
	}
	if n, _ := b.Entities.DeleteByOrganization(ctx, "o1"); n != 1 {
		t.Errorf("DeleteByOrganization = %d, want 1", n)
	}
	if _, _, entities := s.Len(); entities != 1 {
		t.Errorf("remaining entities = %d, want 1", entities)
	}
}
