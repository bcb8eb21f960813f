// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultLimit is the page size when the client does not send "limit".
const DefaultLimit = 15

// MaxLimit caps "limit"; larger values are clamped, not rejected.
const MaxLimit = 50

// Config holds the configured page sizes. The zero value means
// DefaultLimit / MaxLimit.
type Config struct {
	Default int
	Max     int
}

func (c Config) normalized() Config {
	if c.Max <= 0 {
		c.Max = MaxLimit
	}
	if c.Default <= 0 {
		c.Default = DefaultLimit
	}
	if c.Default > c.Max {
		c.Default = c.Max
	}
	return c
}

// Params are the decoded paging query parameters.
type Params struct {
	Limit int
	After primitive.ObjectID // zero: start from the beginning
}

// HasCursor reports whether the client sent a "next" cursor.
func (p Params) HasCursor() bool { return !p.After.IsZero() }

// FetchLimit is the number of rows a store should return for one page.
func (p Params) FetchLimit() int64 { return int64(p.Limit) }

// Parse reads "limit" and "next" from the request query string.
// A non-integer or non-positive limit, or a cursor that is not a record
// identifier, is a ValidationError.
func Parse(r *http.Request, cfg Config) (Params, error) {
	cfg = cfg.normalized()
	p := Params{Limit: cfg.Default}

	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Params{}, apierr.Validation(apierr.ReasonInvalidLimit, "limit must be a positive integer")
		}
		if n > cfg.Max {
			n = cfg.Max
		}
		p.Limit = n
	}

	if s := query.Get(r, "next"); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil || oid.IsZero() {
			return Params{}, apierr.Validation(apierr.ReasonInvalidCursor, "next is not a valid cursor")
		}
		p.After = oid
	}
	return p, nil
}

// Page is one page of results. Next is empty when the page came back short.
type Page[T any] struct {
	Items []T
	Next  string
}

// TrimPage cuts rows down to limit. A full page carries Next, the
// identifier of its last row, even when nothing follows it; the client
// then gets one empty page with no Next.
func TrimPage[T any](rows []T, limit int, idFn func(T) primitive.ObjectID) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) < limit || limit <= 0 {
		return Page[T]{Items: rows}
	}
	rows = rows[:limit]
	return Page[T]{Items: rows, Next: idFn(rows[len(rows)-1]).Hex()}
}
