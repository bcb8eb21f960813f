package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParams adds chi URL parameters (key, value pairs) to the
// request context, for calling a handler method directly.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithTenant attaches an authenticated tenant, bypassing the auth gate.
func WithTenant(r *http.Request, org, orgID string) *http.Request {
	return tenant.WithRequest(r, tenant.Context{Organization: org, OrganizationID: orgID, CreatedBy: orgID})
}

// JSONRequest builds a request whose body is v encoded as JSON. A string
// or []byte v is sent verbatim; nil sends no body.
func JSONRequest(t *testing.T, method, target string, v interface{}) *http.Request {
	t.Helper()
	var body []byte
	switch b := v.(type) {
	case nil:
	case string:
		body = []byte(b)
	case []byte:
		body = b
	default:
		var err error
		if body, err = json.Marshal(v); err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// WithAPIKey sets the headers the auth gate reads.
func WithAPIKey(r *http.Request, key, org string) *http.Request {
	r.Header.Set("x-api-key", key)
	r.Header.Set("organization", org)
	return r
}

// Serve runs req through h and returns the recorder.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON decodes the response body into a generic object.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// AssertStatus fails the test when the response status differs.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// AssertError checks status, error-code header and reason of an error response.
func AssertError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind apierr.Kind, reason string) {
	t.Helper()
	AssertStatus(t, rec, status)
	if got := rec.Header().Get(apierr.CodeHeader); got != string(kind) {
		t.Errorf("%s = %q, want %q", apierr.CodeHeader, got, kind)
	}
	var body apierr.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if reason != "" && body.Reason != reason {
		t.Errorf("reason = %q, want %q (error %q)", body.Reason, reason, body.Error)
	}
}
