// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("storage timeouts overridden from environment",
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long))
	}

	logger.Info("rentity starting",
		zap.String("store_backend", deps.Store.Name),
		zap.String("cipher_algorithm", appCfg.CipherAlgorithm),
		zap.Duration("key_lifetime", appCfg.KeyLifetime),
		zap.Int("page_default", appCfg.PageDefault),
		zap.Int("page_max", appCfg.PageMax))

	if deps.AuditPurge != nil {
		deps.AuditPurge.Start()
	}
	return nil
}
