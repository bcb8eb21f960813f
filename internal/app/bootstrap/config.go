// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/rentity/internal/app/system/auditlog"
	"github.com/dalemusser/rentity/internal/app/system/cipher"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/paging"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devCipherSecret is only acceptable outside prod.
const devCipherSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minProdSecretLen is the shortest cipher secret accepted in prod.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for Rentity.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, cipher_secret, etc.
//   - Environment variables: RENTITY_MONGO_URI, RENTITY_CIPHER_SECRET, etc.
//   - Command-line flags: --mongo_uri, --cipher_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendMongo, Desc: "Storage backend: 'mongo' or 'memory' (memory: no persistence, single process)"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "rentity_api", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "cipher_secret", Default: devCipherSecret, Desc: "API key encryption secret (at least 32 characters in production)"},
	{Name: "cipher_algorithm", Default: cipher.DefaultAlgorithm, Desc: "API key cipher: " + strings.Join(cipher.Algorithms(), ", ")},
	{Name: "key_lifetime", Default: "8760h", Desc: "API key lifetime recorded as keyExpiration (e.g., 8760h)"},

	{Name: "page_default", Default: paging.DefaultLimit, Desc: "Default page size for list and query routes"},
	{Name: "page_max", Default: paging.MaxLimit, Desc: "Largest accepted page size; larger limits are clamped"},
	{Name: "max_body_bytes", Default: int(jsonbody.DefaultLimit), Desc: "Maximum JSON request body size in bytes"},

	{Name: "audit_auth", Default: auditlog.All, Desc: "Audit rejected/throttled credentials: all, db, log, off"},
	{Name: "audit_admin", Default: auditlog.All, Desc: "Audit organization and collection lifecycle: all, db, log, off"},

	{Name: "audit_retention", Default: "2160h", Desc: "How long stored audit events are kept (e.g., 2160h); 0 keeps them forever"},

	{Name: "register_limit", Default: 10, Desc: "Organization registrations allowed per client IP per register_window (0 disables)"},
	{Name: "register_window", Default: "1h", Desc: "Window for register_limit (e.g., 1h)"},
	{Name: "auth_failure_limit", Default: 20, Desc: "Rejected API keys allowed per client IP per auth_failure_window before requests get 429 (0 disables)"},
	{Name: "auth_failure_window", Default: "5m", Desc: "Window for auth_failure_limit (e.g., 5m)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence:
// flags > env (WAFFLE_* for core, RENTITY_* for app) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "RENTITY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend:     strings.ToLower(strings.TrimSpace(appValues.String("store_backend"))),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		CipherSecret:    appValues.String("cipher_secret"),
		CipherAlgorithm: strings.ToLower(strings.TrimSpace(appValues.String("cipher_algorithm"))),
		KeyLifetime:     appValues.Duration("key_lifetime", 365*24*time.Hour),

		PageDefault:  appValues.Int("page_default"),
		PageMax:      appValues.Int("page_max"),
		MaxBodyBytes: int64(appValues.Int("max_body_bytes")),

		AuditAuth:  strings.ToLower(strings.TrimSpace(appValues.String("audit_auth"))),
		AuditAdmin: strings.ToLower(strings.TrimSpace(appValues.String("audit_admin"))),

		AuditRetention: appValues.Duration("audit_retention", 90*24*time.Hour),

		RegisterLimit:     appValues.Int("register_limit"),
		RegisterWindow:    appValues.Duration("register_window", time.Hour),
		AuthFailureLimit:  appValues.Int("auth_failure_limit"),
		AuthFailureWindow: appValues.Duration("auth_failure_window", 5*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Everything checked here would otherwise fail on the first request.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo_database is required")
		}
	case BackendMemory:
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("store_backend=memory in prod: data is lost on restart")
		}
	default:
		return fmt.Errorf("unknown store_backend %q (want %q or %q)", appCfg.StoreBackend, BackendMongo, BackendMemory)
	}

	if strings.TrimSpace(appCfg.CipherSecret) == "" {
		return fmt.Errorf("cipher_secret is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.CipherSecret == devCipherSecret {
			return fmt.Errorf("cipher_secret must be changed from the development default in prod")
		}
		if len(appCfg.CipherSecret) < minProdSecretLen {
			return fmt.Errorf("cipher_secret must be at least %d characters in prod", minProdSecretLen)
		}
	}
	if _, err := cipher.New(appCfg.CipherSecret, appCfg.CipherAlgorithm); err != nil {
		return fmt.Errorf("cipher: %w", err)
	}

	if appCfg.KeyLifetime <= 0 {
		return fmt.Errorf("key_lifetime must be positive")
	}
	if appCfg.PageMax < 1 {
		return fmt.Errorf("page_max must be at least 1")
	}
	if appCfg.PageDefault < 1 || appCfg.PageDefault > appCfg.PageMax {
		return fmt.Errorf("page_default must be between 1 and page_max (%d)", appCfg.PageMax)
	}
	if appCfg.MaxBodyBytes < 1 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	for key, v := range map[string]string{"audit_auth": appCfg.AuditAuth, "audit_admin": appCfg.AuditAdmin} {
		switch v {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}
	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention must not be negative")
	}
	if appCfg.RegisterLimit < 0 || appCfg.AuthFailureLimit < 0 {
		return fmt.Errorf("register_limit and auth_failure_limit must not be negative")
	}
	if (appCfg.RegisterLimit > 0 && appCfg.RegisterWindow <= 0) || (appCfg.AuthFailureLimit > 0 && appCfg.AuthFailureWindow <= 0) {
		return fmt.Errorf("register_window and auth_failure_window must be positive when their limit is set")
	}
	return nil
}

func (c AppConfig) pagingConfig() paging.Config {
	return paging.Config{Default: c.PageDefault, Max: c.PageMax}
}
