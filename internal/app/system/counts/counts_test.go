package counts_test

import (
	"testing"

	"github.com/dalemusser/rentity/internal/app/system/counts"
	"github.com/dalemusser/rentity/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestByField(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	docs := []interface{}{
		bson.M{"organizationId": "o1", "collectionId": "c1"},
		bson.M{"organizationId": "o1", "collectionId": "c1"},
		bson.M{"organizationId": "o1", "collectionId": "c2"},
		bson.M{"organizationId": "o2", "collectionId": "c3"},
	}
	if _, err := db.Collection("entities").InsertMany(ctx, docs); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	got, err := counts.ByField(ctx, db, "entities", bson.M{"organizationId": "o1"}, "collectionId")
	if err != nil {
		t.Fatalf("ByField failed: %v", err)
	}
	if got["c1"] != 2 {
		t.Errorf("c1 count: got %d, want 2", got["c1"])
	}
	if got["c2"] != 1 {
		t.Errorf("c2 count: got %d, want 1", got["c2"])
	}
	if _, ok := got["c3"]; ok {
		t.Error("c3 belongs to another organization and must not be counted")
	}
}

func TestByField_NoMatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := counts.ByField(ctx, db, "entities", bson.M{"organizationId": "nobody"}, "collectionId")
	if err != nil {
		t.Fatalf("ByField failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %d entries", len(got))
	}
}
