package authgate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/rentity/internal/app/store/memstore"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/cipher"
	"github.com/dalemusser/rentity/internal/app/system/ratelimit"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/dalemusser/rentity/internal/domain/models"
	"go.uber.org/zap"
)

const testKey = "ABCDEFG-HIJKLMN-OPQRSTU-VWXYZ23"

func newGate(t *testing.T) *Gate {
	t.Helper()
	c, err := cipher.New("a-test-secret-that-is-long-enough-0123", cipher.DefaultAlgorithm)
	if err != nil {
		t.Fatalf("cipher.New: %v", err)
	}
	enc, err := c.Encrypt(testKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	b := memstore.New().Backend()
	if _, err := b.Orgs.Create(context.Background(), models.Organization{
		OrganizationID: "org-1",
		Organization:   "acme",
		APIKey:         enc,
	}); err != nil {
		t.Fatalf("Create org: %v", err)
	}
	// Stored key encrypted under a different secret.
	other, _ := cipher.New("some-other-secret-that-is-long-enough", cipher.DefaultAlgorithm)
	foreign, _ := other.Encrypt(testKey)
	b.Orgs.Create(context.Background(), models.Organization{
		OrganizationID: "org-2",
		Organization:   "rotated",
		APIKey:         foreign,
	})
	// Stored key encrypted under a different algorithm.
	otherAlg, _ := cipher.New("a-test-secret-that-is-long-enough-0123", "aes-128-ctr")
	switched, _ := otherAlg.Encrypt(testKey)
	b.Orgs.Create(context.Background(), models.Organization{
		OrganizationID: "org-3",
		Organization:   "switched",
		APIKey:         switched,
	})

	logger := zap.NewNop()
	return New(b.Orgs, c, apierr.NewResponder(logger, false), logger)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    Credentials
	}{
		{
			name:    "api key with id",
			headers: map[string]string{"x-api-key": "k", "organizationid": "o1"},
			want:    APIKeyAuth{Key: "k", OrganizationID: "o1"},
		},
		{
			name:    "api key with both identifiers",
			headers: map[string]string{"x-api-key": "k", "organizationid": "o1", "organization": "acme"},
			want:    APIKeyAuth{Key: "k", OrganizationID: "o1", Organization: "acme"},
		},
		{
			name:    "api key without identifier",
			headers: map[string]string{"x-api-key": "k"},
			want:    APIKeyAuth{Key: "k"},
		},
		{
			name:    "blank identifiers are absent",
			headers: map[string]string{"x-api-key": "k", "organizationid": "  "},
			want:    APIKeyAuth{Key: "k"},
		},
		{
			name:    "token",
			headers: map[string]string{"token": "t", "organization": "acme"},
			want:    TokenAuth{Token: "t"},
		},
		{
			name:    "api key beats token",
			headers: map[string]string{"x-api-key": "k", "token": "t", "organization": "acme"},
			want:    APIKeyAuth{Key: "k", Organization: "acme"},
		},
		{
			name:    "nothing",
			headers: map[string]string{"organization": "acme"},
			want:    Unrecognized{},
		},
		{
			name:    "blank key",
			headers: map[string]string{"x-api-key": " ", "organization": "acme"},
			want:    Unrecognized{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			if got := Parse(h); got != tt.want {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	g := newGate(t)

	flipped := []byte(testKey)
	flipped[0] = 'Z'

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantKind   apierr.Kind
		wantReason string
	}{
		{
			name:       "valid key by id",
			headers:    map[string]string{"x-api-key": testKey, "organizationid": "org-1"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid key by name",
			headers:    map[string]string{"x-api-key": testKey, "organization": "acme"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "name is normalized before lookup",
			headers:    map[string]string{"x-api-key": testKey, "organization": " ACME "},
			wantStatus: http.StatusOK,
		},
		{
			name:       "id takes precedence over name",
			headers:    map[string]string{"x-api-key": testKey, "organizationid": "org-1", "organization": "nobody"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "flipped key character",
			headers:    map[string]string{"x-api-key": string(flipped), "organizationid": "org-1"},
			wantStatus: http.StatusUnauthorized,
			wantKind:   apierr.KindAuth,
			wantReason: apierr.ReasonInvalidKey,
		},
		{
			name:       "missing org identifier",
			headers:    map[string]string{"x-api-key": testKey},
			wantStatus: http.StatusUnauthorized,
			wantKind:   apierr.KindAuth,
			wantReason: apierr.ReasonMissingOrgIdentifier,
		},
		{
			name:       "unknown org",
			headers:    map[string]string{"x-api-key": testKey, "organization": "globex"},
			wantStatus: http.StatusUnauthorized,
			wantKind:   apierr.KindAuth,
			wantReason: apierr.ReasonOrgNotFound,
		},
		{
			name:       "token alone",
			headers:    map[string]string{"token": "abc"},
			wantStatus: http.StatusUnauthorized,
			wantKind:   apierr.KindAuth,
			wantReason: apierr.ReasonTokensUnsupported,
		},
		{
			name:       "no credentials",
			headers:    map[string]string{},
			wantStatus: http.StatusUnauthorized,
			wantKind:   apierr.KindAuth,
			wantReason: apierr.ReasonUnrecognizedFormat,
		},
		{
			name:       "stored key under another secret",
			headers:    map[string]string{"x-api-key": testKey, "organization": "rotated"},
			wantStatus: http.StatusInternalServerError,
			wantKind:   apierr.KindCipher,
		},
		{
			name:       "stored key under another algorithm",
			headers:    map[string]string{"x-api-key": testKey, "organization": "switched"},
			wantStatus: http.StatusInternalServerError,
			wantKind:   apierr.KindCipher,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got tenant.Context
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = tenant.FromRequest(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/organizations/acme", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			g.Require(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				want := tenant.Context{Organization: "acme", OrganizationID: "org-1", CreatedBy: "org-1"}
				if got != want {
					t.Errorf("tenant = %+v, want %+v", got, want)
				}
				return
			}

			if h := rec.Header().Get(apierr.CodeHeader); h != string(tt.wantKind) {
				t.Errorf("%s = %q, want %q", apierr.CodeHeader, h, tt.wantKind)
			}
			var body apierr.Body
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", body.Reason, tt.wantReason)
			}
		})
	}
}

func TestRequire_FailureThrottle(t *testing.T) {
	g := newGate(t)
	g.Failures = ratelimit.New(2, time.Minute)
	defer g.Failures.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	call := func(key string) int {
		req := httptest.NewRequest("GET", "/organizations/acme", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("x-api-key", key)
		req.Header.Set("organization", "acme")
		rec := httptest.NewRecorder()
		g.Require(next).ServeHTTP(rec, req)
		return rec.Code
	}

	if got := call(testKey); got != http.StatusOK {
		t.Fatalf("valid key status = %d, want 200", got)
	}
	for i := 0; i < 2; i++ {
		if got := call("WRONG"); got != http.StatusUnauthorized {
			t.Fatalf("bad key #%d status = %d, want 401", i+1, got)
		}
	}
	if got := call(testKey); got != http.StatusTooManyRequests {
		t.Fatalf("after limit status = %d, want 429", got)
	}
}
