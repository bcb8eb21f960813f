// Package authgate authenticates API requests by organization API key and
// attaches the resulting tenant.Context to the request.
package authgate

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/auditlog"
	"github.com/dalemusser/rentity/internal/app/system/normalize"
	"github.com/dalemusser/rentity/internal/app/system/ratelimit"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.uber.org/zap"
)

// Request headers.
const (
	HeaderAPIKey         = "x-api-key"
	HeaderOrganizationID = "organizationid"
	HeaderOrganization   = "organization"
	HeaderToken          = "token"
)

// Credentials is the shape of the authentication headers on a request:
// one of APIKeyAuth, TokenAuth or Unrecognized.
type Credentials interface {
	credentials()
}

// APIKeyAuth is an API key plus the organization it claims to belong to.
// At least one of OrganizationID / Organization is needed to authenticate.
type APIKeyAuth struct {
	Key            string
	OrganizationID string
	Organization   string
}

// TokenAuth is a bearer token. Tokens are recognized but not supported.
type TokenAuth struct {
	Token string
}

// Unrecognized is any header combination that is neither of the above.
type Unrecognized struct{}

func (APIKeyAuth) credentials()   {}
func (TokenAuth) credentials()    {}
func (Unrecognized) credentials() {}

// Parse classifies the request headers. Blank values count as absent.
func Parse(h http.Header) Credentials {
	key := normalize.Header(h.Get(HeaderAPIKey))
	if key != "" {
		return APIKeyAuth{
			Key:            key,
			OrganizationID: normalize.Header(h.Get(HeaderOrganizationID)),
			Organization:   normalize.Header(h.Get(HeaderOrganization)),
		}
	}
	if tok := normalize.Header(h.Get(HeaderToken)); tok != "" {
		return TokenAuth{Token: tok}
	}
	return Unrecognized{}
}

// Decrypter recovers a stored API key. *cipher.Cipher satisfies it.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// Gate verifies credentials against the organization store.
type Gate struct {
	Orgs   store.Organizations
	Cipher Decrypter
	Errors apierr.Responder
	Log    *zap.Logger

	// Failures, when set, counts rejected credentials per client IP and
	// turns further attempts away once the limit is reached.
	Failures *ratelimit.Limiter

	// Audit, when set, records rejected and throttled credentials.
	Audit *auditlog.Logger
}

// New constructs a Gate.
func New(orgs store.Organizations, c Decrypter, errs apierr.Responder, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{Orgs: orgs, Cipher: c, Errors: errs, Log: logger}
}

// Authenticate resolves creds to a tenant. Failures are *apierr.Error:
// AuthError for every credential problem, CipherError when the stored key
// cannot be decrypted, StorageError when the lookup itself fails.
func (g *Gate) Authenticate(ctx context.Context, creds Credentials) (tenant.Context, error) {
	switch c := creds.(type) {
	case APIKeyAuth:
		return g.apiKey(ctx, c)
	case TokenAuth:
		return tenant.Context{}, apierr.Auth(apierr.ReasonTokensUnsupported, "token authentication is not yet supported")
	default:
		return tenant.Context{}, apierr.Auth(apierr.ReasonUnrecognizedFormat, "unrecognized authentication format")
	}
}

func (g *Gate) apiKey(ctx context.Context, c APIKeyAuth) (tenant.Context, error) {
	var (
		org models.Organization
		err error
	)
	switch {
	case c.OrganizationID != "":
		org, err = g.Orgs.GetByID(ctx, c.OrganizationID)
	case c.Organization != "":
		org, err = g.Orgs.GetByName(ctx, normalize.ResourceName(c.Organization))
	default:
		return tenant.Context{}, apierr.Auth(apierr.ReasonMissingOrgIdentifier, "organizationid or organization header required")
	}
	if errors.Is(err, store.ErrNotFound) {
		return tenant.Context{}, apierr.Auth(apierr.ReasonOrgNotFound, "organization not found")
	}
	if err != nil {
		return tenant.Context{}, apierr.Storage("load organization", err)
	}

	plain, err := g.Cipher.Decrypt(org.APIKey)
	if err != nil {
		return tenant.Context{}, apierr.Cipher("decrypt api key", err)
	}
	if subtle.ConstantTimeCompare([]byte(plain), []byte(c.Key)) != 1 {
		return tenant.Context{}, apierr.Auth(apierr.ReasonInvalidKey, "invalid api key")
	}
	return tenant.Context{
		Organization:   org.Organization,
		OrganizationID: org.OrganizationID,
		CreatedBy:      org.OrganizationID,
	}, nil
}

// Require is middleware that rejects unauthenticated requests and attaches
// the tenant to authenticated ones.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := timeouts.Detached(r, timeouts.Short())
		defer cancel()

		ip := ratelimit.ClientIP(r)
		if g.Failures.Remaining(ip) == 0 {
			g.Audit.AuthThrottled(ctx, r)
			ratelimit.Reject(w, r, g.Errors, g.Failures.RetryAfter(ip))
			return
		}

		t, err := g.Authenticate(ctx, Parse(r.Header))
		if err != nil {
			if apierr.KindOf(err) == apierr.KindAuth {
				g.Failures.Allow(ip)
				g.Audit.AuthRejected(ctx, r, apierr.ReasonOf(err),
					normalize.Header(r.Header.Get(HeaderOrganizationID)),
					normalize.Header(r.Header.Get(HeaderOrganization)))
				g.Log.Warn("authentication rejected",
					zap.String("reason", apierr.ReasonOf(err)),
					zap.String("organizationid", normalize.Header(r.Header.Get(HeaderOrganizationID))),
					zap.String("organization", normalize.Header(r.Header.Get(HeaderOrganization))),
					zap.String("ip", ip))
			}
			g.Errors.Write(w, r, err)
			return
		}
		next.ServeHTTP(w, tenant.WithRequest(r, t))
	})
}
