// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	collectionsfeature "github.com/dalemusser/rentity/internal/app/features/collections"
	entitiesfeature "github.com/dalemusser/rentity/internal/app/features/entities"
	errorsfeature "github.com/dalemusser/rentity/internal/app/features/errors"
	healthfeature "github.com/dalemusser/rentity/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/rentity/internal/app/features/organizations"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/auditlog"
	"github.com/dalemusser/rentity/internal/app/system/authgate"
	"github.com/dalemusser/rentity/internal/app/system/cipher"
	"github.com/dalemusser/rentity/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for Rentity.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every dependency a feature needs (store,
// cipher, error responder, logger) is built here and passed in.
//
// Route tree:
//
//	GET    /health
//	POST   /organizations
//	*      /organizations/{orgName}/...            auth gate + org-path check
//	*      .../collections/...
//	*      .../collections/{collectionName}/entities/...
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	c, err := cipher.New(appCfg.CipherSecret, appCfg.CipherAlgorithm)
	if err != nil {
		logger.Error("cipher init failed", zap.Error(err))
		return nil, err
	}

	// Internal error text is only returned to clients outside prod.
	expose := coreCfg == nil || coreCfg.Env != "prod"
	errs := apierr.NewResponder(logger, expose)

	var sink auditlog.Sink
	if deps.AuditStore != nil {
		sink = deps.AuditStore
	}
	audit := auditlog.New(sink, logger, auditlog.Config{Auth: appCfg.AuditAuth, Admin: appCfg.AuditAdmin})

	gate := authgate.New(deps.Store.Orgs, c, errs, logger)
	gate.Audit = audit
	gate.Failures = ratelimit.New(appCfg.AuthFailureLimit, appCfg.AuthFailureWindow)
	pg := appCfg.pagingConfig()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	errorsHandler := errorsfeature.NewHandler(errs)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store.Ping, deps.Store.Name, expose, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Organizations own collections, which own entities; each level mounts
	// the next below its own path.
	entHandler := entitiesfeature.NewHandler(deps.Store, errs, pg, appCfg.MaxBodyBytes, logger)
	collHandler := collectionsfeature.NewHandler(deps.Store, errs, pg, appCfg.MaxBodyBytes, logger)
	collHandler.Audit = audit
	orgHandler := organizationsfeature.NewHandler(deps.Store, c, errs, appCfg.KeyLifetime, appCfg.MaxBodyBytes, logger)
	orgHandler.Audit = audit
	orgHandler.Registrations = ratelimit.New(appCfg.RegisterLimit, appCfg.RegisterWindow)

	collectionsRouter := collectionsfeature.Routes(collHandler, entitiesfeature.Routes(entHandler))
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler, gate.Require, collectionsRouter))

	return r, nil
}
