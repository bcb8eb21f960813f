// Package tenant carries the authenticated organization through a request.
package tenant

import (
	"context"
	"net/http"
)

// Context identifies the organization a request acts for. It is built by
// the auth gate once the API key has been verified.
type Context struct {
	Organization   string // normalized organization name
	OrganizationID string
	CreatedBy      string // currently always OrganizationID
}

type ctxKey string

const tenantKey ctxKey = "tenant"

// With returns a copy of ctx carrying t.
func With(ctx context.Context, t Context) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// WithRequest returns r with t attached to its context.
func WithRequest(r *http.Request, t Context) *http.Request {
	return r.WithContext(With(r.Context(), t))
}

// FromContext returns the tenant and whether one was attached.
func FromContext(ctx context.Context) (Context, bool) {
	t, ok := ctx.Value(tenantKey).(Context)
	return t, ok
}

// FromRequest is FromContext(r.Context()).
func FromRequest(r *http.Request) (Context, bool) {
	return FromContext(r.Context())
}
