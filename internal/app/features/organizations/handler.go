// internal/app/features/organizations/handler.go
package organizations

import (
	"time"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/auditlog"
	"github.com/dalemusser/rentity/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Encrypter seals a freshly generated API key for storage.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// DefaultKeyLifetime is how long a new API key is advertised as valid.
const DefaultKeyLifetime = 365 * 24 * time.Hour

// bcryptCost matches the cost used elsewhere for stored secrets.
const bcryptCost = 12

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	Store       store.Backend
	Cipher      Encrypter
	Errors      apierr.Responder
	Log         *zap.Logger
	KeyLifetime time.Duration
	MaxBody     int64
	Now         func() time.Time

	// Audit records registrations and deletions; nil disables it.
	Audit *auditlog.Logger

	// Registrations throttles POST / per client IP; nil disables it.
	Registrations *ratelimit.Limiter
}

// NewHandler constructs an Organizations handler.
func NewHandler(b store.Backend, c Encrypter, errs apierr.Responder, keyLifetime time.Duration, maxBody int64, logger *zap.Logger) *Handler {
	if keyLifetime <= 0 {
		keyLifetime = DefaultKeyLifetime
	}
	return &Handler{
		Store:       b,
		Cipher:      c,
		Errors:      errs,
		Log:         logger,
		KeyLifetime: keyLifetime,
		MaxBody:     maxBody,
		Now:         time.Now,
	}
}
