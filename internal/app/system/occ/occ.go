// Package occ implements optimistic concurrency for PATCH routes. Every
// mutable record carries a dateTimeLastUpdated token; a client must present
// the current token to modify the record, and the write itself is a
// compare-and-swap on that token.
package occ

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/domain/models"
)

// ParseToken parses a URL token (epoch milliseconds).
func ParseToken(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apierr.Validation(apierr.ReasonInvalidToken, "dateTimeLastUpdated must be an integer")
	}
	return n, nil
}

// Check fails with a StaleToken ConcurrencyError unless supplied equals
// the stored token.
func Check(stored, supplied int64) error {
	if stored != supplied {
		return apierr.Stale("dateTimeLastUpdated is stale; fetch the record and retry")
	}
	return nil
}

// Merge returns a copy of doc with every top-level key of patch written
// over it. Nested values are replaced, not merged, and keys cannot be
// removed.
func Merge(doc models.Document, patch map[string]interface{}) models.Document {
	out := doc.Clone()
	if out == nil {
		out = models.Document{}
	}
	for k, v := range patch {
		out[k] = models.Plain(v)
	}
	return out
}

// Next returns the token that replaces prev: the current time in
// milliseconds, or prev+1 when the clock has not moved past prev.
func Next(prev int64, now time.Time) int64 {
	ms := now.UnixMilli()
	if ms <= prev {
		return prev + 1
	}
	return ms
}

// Target describes one PATCH: how to load the record, where its mutable
// document and token live, how to validate it and how to write it back.
type Target[T any] struct {
	Load     func(ctx context.Context) (T, error)
	Document func(rec *T) *models.Document
	Token    func(rec *T) *int64
	// Validate checks the merged record before it is written. Optional.
	Validate func(ctx context.Context, rec T) error
	// Replace writes rec only if its stored token still equals prev.
	Replace func(ctx context.Context, rec T, prev int64) error

	NotFound string // message for the 404
}

// Update runs the load, check, merge, validate, compare-and-swap sequence.
// rawToken is the URL token; now supplies the clock.
//
//	404 when Load reports store.ErrNotFound
//	400 when rawToken is not an integer
//	403 when rawToken differs from the stored token
//	400 when Validate rejects the merged record
//	409 when another writer replaced the record after Load
func Update[T any](ctx context.Context, rawToken string, patch map[string]interface{}, now func() time.Time, t Target[T]) (T, error) {
	var zero T

	rec, err := t.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, apierr.NotFound(t.NotFound)
		}
		return zero, storageErr("load", err)
	}

	supplied, err := ParseToken(rawToken)
	if err != nil {
		return zero, err
	}
	tok := t.Token(&rec)
	prev := *tok
	if err := Check(prev, supplied); err != nil {
		return zero, err
	}

	doc := t.Document(&rec)
	*doc = Merge(*doc, patch)

	if t.Validate != nil {
		if err := t.Validate(ctx, rec); err != nil {
			return zero, err
		}
	}

	*tok = Next(prev, now())
	if err := t.Replace(ctx, rec, prev); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return zero, apierr.Conflict("record was modified concurrently; fetch the record and retry")
		}
		return zero, storageErr("replace", err)
	}
	return rec, nil
}

func storageErr(op string, err error) error {
	if _, ok := apierr.As(err); ok {
		return err
	}
	return apierr.Storage(op, err)
}
