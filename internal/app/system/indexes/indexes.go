// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names shared by the Mongo stores.
const (
	Organizations = "organizations"
	Collections   = "collections"
	Entities      = "entities"
	AuditEvents   = "audit_events"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup fails fast.
The unique indexes here are what actually enforce organization-name and
per-organization collection-name uniqueness; the handlers' pre-checks only
produce friendlier errors.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureOrganizations(ctx, db); err != nil {
		problems = append(problems, Organizations+": "+err.Error())
	}
	if err := ensureCollections(ctx, db); err != nil {
		problems = append(problems, Collections+": "+err.Error())
	}
	if err := ensureEntities(ctx, db); err != nil {
		problems = append(problems, Entities+": "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, AuditEvents+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

type desiredIndex struct {
	model  mongo.IndexModel
	name   string
	unique bool
	sig    string
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		if m.Options.Unique != nil {
			d.unique = *m.Options.Unique
		}
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(p *bool) bool { return p != nil && *p }

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// recreate drops ex and creates d in its place.
func recreate(ctx context.Context, coll *mongo.Collection, ex existingIndex, d desiredIndex) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		return fmt.Errorf("drop %s failed: %w", ex.Name, err)
	}
	return create(ctx, coll, d)
}

func create(ctx context.Context, coll *mongo.Collection, d desiredIndex) error {
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		if d.unique && wafflemongo.IsDup(err) {
			return fmt.Errorf("cannot create unique index on {%s} (duplicates present)", d.sig)
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	fail := func(d desiredIndex, err error) {
		zap.L().Warn("index ensure failed",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Error(err))
		errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
	}

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		existing, err := listIndexes(ctx, coll)
		if err != nil {
			// A missing collection lists nothing; CreateOne below creates it.
			existing = map[string]existingIndex{}
		}

		if ex, ok := existing[d.sig]; ok {
			switch {
			case d.unique != isUnique(ex.Unique):
				// Options mismatch (e.g. upgrading to unique).
				if err := recreate(ctx, coll, ex, d); err != nil {
					fail(d, err)
					continue
				}
				zap.L().Info("index dropped and recreated",
					zap.String("collection", coll.Name()),
					zap.String("name", d.name),
					zap.String("took", time.Since(start).String()))
			case d.name != "" && ex.Name != d.name:
				if err := recreate(ctx, coll, ex, d); err != nil {
					fail(d, err)
					continue
				}
				zap.L().Info("index renamed",
					zap.String("collection", coll.Name()),
					zap.String("from", ex.Name),
					zap.String("to", d.name),
					zap.String("took", time.Since(start).String()))
			default:
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("took", time.Since(start).String()))
			}
			continue
		}

		err = create(ctx, coll, d)
		if err != nil && isOptionsConflictErr(err) {
			// Lost a race with another instance creating the same keys.
			existing, lerr := listIndexes(ctx, coll)
			if ex, ok := existing[d.sig]; lerr == nil && ok {
				if d.unique == isUnique(ex.Unique) {
					err = nil
				} else {
					err = recreate(ctx, coll, ex, d)
				}
			}
		}
		if err != nil {
			fail(d, err)
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(Organizations), []mongo.IndexModel{
		// Organization names are globally unique (already normalized on write).
		{
			Keys:    bson.D{{Key: "organization", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_organization"),
		},
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_organizationid"),
		},
	})
}

func ensureCollections(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(Collections), []mongo.IndexModel{
		// Collection names are unique within an organization.
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_collections_org_name"),
		},
		{
			Keys:    bson.D{{Key: "collectionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_collections_collectionid"),
		},
		// Paged listing: tenant filter + _id cursor.
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_collections_org__id"),
		},
	})
}

func ensureEntities(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(Entities), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entityId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_entities_entityid"),
		},
		// Paged listing and per-collection counts.
		{
			Keys: bson.D{
				{Key: "organizationId", Value: 1},
				{Key: "collectionId", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_entities_org_collection__id"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(AuditEvents), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_org_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
