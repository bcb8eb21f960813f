// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for Rentity.
//
// Values come from environment variables (RENTITY_*), configuration files,
// or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings: ports, TLS, logging and env.
//
// Secrets in here (CipherSecret) are handed to components through their
// constructors; nothing reads AppConfig from a global.
type AppConfig struct {
	// Storage backend: "mongo" or "memory".
	StoreBackend string

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Credential Cipher
	CipherSecret    string // process-wide API key encryption secret
	CipherAlgorithm string // aes-128-ctr, aes-192-ctr or aes-256-ctr

	// KeyLifetime is added to the registration time to form keyExpiration.
	KeyLifetime time.Duration

	// Cursor Pager sizes
	PageDefault int
	PageMax     int

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64

	// Audit destinations per category: all, db, log or off.
	AuditAuth  string
	AuditAdmin string

	// AuditRetention is how long stored audit events are kept; 0 keeps them forever.
	AuditRetention time.Duration

	// Throttles, counted per client IP; a zero limit disables the throttle.
	// RegisterLimit counts registrations, AuthFailureLimit rejected credentials.
	RegisterLimit     int
	RegisterWindow    time.Duration
	AuthFailureLimit  int
	AuthFailureWindow time.Duration
}

// Storage backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)
