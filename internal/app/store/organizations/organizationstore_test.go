package organizationstore_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/rentity/internal/app/store"
	organizationstore "github.com/dalemusser/rentity/internal/app/store/organizations"
	"github.com/dalemusser/rentity/internal/app/system/indexes"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/dalemusser/rentity/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newOrg(id, name string) models.Organization {
	return models.Organization{
		OrganizationID: id,
		Organization:   name,
		FName:          "Ada",
		LName:          "Lovelace",
		Email:          "ada@example.com",
		APIKey:         "ciphertext",
		KeyExpiration:  1700000000000,
		Verified:       true,
		LoggedIn:       true,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := s.Create(ctx, newOrg("org-1", "acme"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}

	byID, err := s.GetByID(ctx, "org-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Organization != "acme" || byID.APIKey != "ciphertext" {
		t.Errorf("GetByID returned %+v", byID)
	}

	byName, err := s.GetByName(ctx, "acme")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if byName.OrganizationID != "org-1" {
		t.Errorf("GetByName OrganizationID = %q, want org-1", byName.OrganizationID)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetByName(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByName err = %v, want ErrNotFound", err)
	}
}

func TestStore_CreateDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	s := organizationstore.New(db)

	if _, err := s.Create(ctx, newOrg("org-1", "acme")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(ctx, newOrg("org-2", "acme")); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("second Create err = %v, want ErrDuplicate", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Create(ctx, newOrg("org-1", "acme")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Delete(ctx, "org-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "org-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}
