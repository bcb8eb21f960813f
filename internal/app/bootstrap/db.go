// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/store/audit"
	collectionstore "github.com/dalemusser/rentity/internal/app/store/collections"
	entitystore "github.com/dalemusser/rentity/internal/app/store/entities"
	"github.com/dalemusser/rentity/internal/app/store/memstore"
	organizationstore "github.com/dalemusser/rentity/internal/app/store/organizations"
	"github.com/dalemusser/rentity/internal/app/system/indexes"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/app/system/txn"
	"github.com/dalemusser/rentity/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// auditPurgeInterval is how often expired audit events are removed.
const auditPurgeInterval = time.Hour

// ConnectDB connects to the configured backend and builds the store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	if appCfg.StoreBackend == BackendMemory {
		logger.Warn("using in-memory store; data will not survive a restart")
		return DBDeps{Store: memstore.New().Backend()}, nil
	}

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Store:         mongoBackend(client, db, logger),
		AuditStore:    audit.New(db),
	}
	if appCfg.AuditRetention > 0 {
		deps.AuditPurge = workers.NewAuditPurge(deps.AuditStore, logger, auditPurgeInterval, appCfg.AuditRetention)
	}
	return deps, nil
}

func mongoBackend(client *mongo.Client, db *mongo.Database, logger *zap.Logger) store.Backend {
	return store.Backend{
		Orgs:        organizationstore.New(db),
		Collections: collectionstore.New(db),
		Entities:    entitystore.New(db),
		Tx:          txn.New(client, logger),
		Name:        "mongodb",
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
}

// EnsureSchema creates the unique and ordering indexes. The unique ones
// are what actually prevent duplicate organization and collection names.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
