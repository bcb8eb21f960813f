// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/store/audit"
	"github.com/dalemusser/rentity/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// The Mongo fields are nil when StoreBackend is "memory".
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Store is what every feature talks to.
	Store store.Backend

	// AuditStore persists audit events; nil without Mongo.
	AuditStore *audit.Store

	// AuditPurge enforces audit_retention; nil when there is nothing to purge.
	AuditPurge *workers.AuditPurge
}
