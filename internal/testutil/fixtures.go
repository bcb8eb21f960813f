package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apikey"
	"github.com/dalemusser/rentity/internal/app/system/cipher"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/google/uuid"
)

// TestSecret is the cipher secret used by fixtures and handler tests.
const TestSecret = "rentity-test-secret-0123456789abcdef"

// NewCipher returns a cipher keyed with TestSecret.
func NewCipher(t *testing.T) *cipher.Cipher {
	t.Helper()
	c, err := cipher.New(TestSecret, cipher.DefaultAlgorithm)
	if err != nil {
		t.Fatalf("cipher.New: %v", err)
	}
	return c
}

// Fixtures creates records directly through a store.Backend, so the same
// helpers serve Mongo-backed and in-memory tests.
type Fixtures struct {
	t       *testing.T
	backend store.Backend
	cipher  *cipher.Cipher
}

// NewFixtures creates a Fixtures for b.
func NewFixtures(t *testing.T, b store.Backend) *Fixtures {
	t.Helper()
	return &Fixtures{t: t, backend: b, cipher: NewCipher(t)}
}

// Backend returns the underlying store.
func (f *Fixtures) Backend() store.Backend { return f.backend }

// CreateOrganization stores an organization with a fresh API key and
// returns it together with the plaintext key.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) (models.Organization, string) {
	f.t.Helper()

	key, err := apikey.Generate()
	if err != nil {
		f.t.Fatalf("generate key: %v", err)
	}
	sealed, err := f.cipher.Encrypt(key)
	if err != nil {
		f.t.Fatalf("encrypt key: %v", err)
	}
	org, err := f.backend.Orgs.Create(ctx, models.Organization{
		OrganizationID: uuid.NewString(),
		Organization:   name,
		FName:          "Test",
		LName:          "Owner",
		Email:          "owner@" + name + ".test",
		APIKey:         sealed,
		KeyExpiration:  time.Now().Add(24 * time.Hour).UnixMilli(),
		Verified:       true,
		LoggedIn:       true,
	})
	if err != nil {
		f.t.Fatalf("create organization %q: %v", name, err)
	}
	return org, key
}

// CreateCollection stores a collection owned by org.
func (f *Fixtures) CreateCollection(ctx context.Context, org models.Organization, name string, schemaJSON string) models.Collection {
	f.t.Helper()

	c := models.Collection{
		Name:                name,
		CollectionID:        uuid.NewString(),
		Creator:             org.OrganizationID,
		OrganizationID:      org.OrganizationID,
		Organization:        org.Organization,
		DateTimeLastUpdated: time.Now().UnixMilli(),
	}
	if schemaJSON != "" {
		c.CollectionSchema = models.Schema(schemaJSON)
	}
	created, err := f.backend.Collections.Create(ctx, c)
	if err != nil {
		f.t.Fatalf("create collection %q: %v", name, err)
	}
	return created
}

// CreateEntity stores an entity in c.
func (f *Fixtures) CreateEntity(ctx context.Context, c models.Collection, data models.Document) models.Entity {
	f.t.Helper()

	e, err := f.backend.Entities.Create(ctx, models.Entity{
		EntityID:            uuid.NewString(),
		Collection:          c.Name,
		CollectionID:        c.CollectionID,
		Organization:        c.Organization,
		OrganizationID:      c.OrganizationID,
		CreatedBy:           c.OrganizationID,
		DateTimeLastUpdated: time.Now().UnixMilli(),
		Data:                data,
	})
	if err != nil {
		f.t.Fatalf("create entity: %v", err)
	}
	return e
}
