// Package apierr is the error taxonomy shared by every handler and
// middleware. Each failure carries a Kind (the category a client can act
// on), an optional Reason (the precise cause inside that category), a
// human-readable Msg, and optionally the Op and underlying Err for operators.
//
// Handlers never write raw storage errors to the client. They either build
// an *Error directly or let Responder wrap the unknown error as a
// StorageError.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the error category.
type Kind string

const (
	KindAuth        Kind = "AuthError"
	KindAuthz       Kind = "AuthzError"
	KindValidation  Kind = "ValidationError"
	KindSchema      Kind = "SchemaError"
	KindNotFound    Kind = "NotFoundError"
	KindConcurrency Kind = "ConcurrencyError"
	KindDuplicate   Kind = "DuplicateError"
	KindCipher      Kind = "CipherError"
	KindStorage     Kind = "StorageError"
	KindRateLimit   Kind = "RateLimitError"
)

// Reasons refine a Kind.
const (
	// AuthError
	ReasonMissingOrgIdentifier = "MissingOrgIdentifier"
	ReasonOrgNotFound          = "OrgNotFound"
	ReasonInvalidKey           = "InvalidKey"
	ReasonTokensUnsupported    = "TokensUnsupported"
	ReasonUnrecognizedFormat   = "UnrecognizedFormat"

	// AuthzError
	ReasonOrgPathMismatch = "OrgPathMismatch"

	// ValidationError
	ReasonMissingFields = "MissingFields"
	ReasonInvalidEmail  = "InvalidEmail"
	ReasonInvalidBody   = "InvalidBody"
	ReasonInvalidToken  = "InvalidToken"
	ReasonInvalidCursor = "InvalidCursor"
	ReasonInvalidLimit  = "InvalidLimit"
	ReasonInvalidFilter = "InvalidFilter"
	ReasonReservedName  = "ReservedName"

	// SchemaError
	ReasonValidationFailed = "ValidationFailed"
	ReasonInvalidSchema    = "InvalidSchema"

	// ConcurrencyError
	ReasonStaleToken      = "StaleToken"
	ReasonConflictOnWrite = "ConflictOnWrite"
)

var kindStatus = map[Kind]int{
	KindAuth:        http.StatusUnauthorized,
	KindAuthz:       http.StatusUnauthorized,
	KindValidation:  http.StatusBadRequest,
	KindSchema:      http.StatusBadRequest,
	KindNotFound:    http.StatusNotFound,
	KindConcurrency: http.StatusForbidden,
	KindDuplicate:   http.StatusBadRequest,
	KindCipher:      http.StatusInternalServerError,
	KindStorage:     http.StatusInternalServerError,
	KindRateLimit:   http.StatusTooManyRequests,
}

// Error is the concrete error type for every client-visible failure.
type Error struct {
	Kind   Kind
	Reason string
	Msg    string
	Op     string
	Err    error

	// Status overrides the Kind's default HTTP status when non-zero.
	Status int
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(fmt.Sprintf("<%s>", e.Kind))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the response status for e.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds an *Error with the given kind, reason and message.
func New(kind Kind, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Msg: msg}
}

// Auth is a 401 credential failure.
func Auth(reason, msg string) *Error { return New(KindAuth, reason, msg) }

// Authz is a 401 tenant/path mismatch.
func Authz(reason, msg string) *Error { return New(KindAuthz, reason, msg) }

// Validation is a 400 request-shape failure.
func Validation(reason, msg string) *Error { return New(KindValidation, reason, msg) }

// Schema is a 400 structural-validation failure. err carries the validator's
// detail and is exposed to the client.
func Schema(reason, msg string, err error) *Error {
	return &Error{Kind: KindSchema, Reason: reason, Msg: msg, Err: err}
}

// NotFound is a 404.
func NotFound(msg string) *Error { return New(KindNotFound, "", msg) }

// Stale reports a concurrency token that no longer matches the record (403).
func Stale(msg string) *Error {
	return &Error{Kind: KindConcurrency, Reason: ReasonStaleToken, Msg: msg, Status: http.StatusForbidden}
}

// Conflict reports a compare-and-swap write that lost a race (409).
func Conflict(msg string) *Error {
	return &Error{Kind: KindConcurrency, Reason: ReasonConflictOnWrite, Msg: msg, Status: http.StatusConflict}
}

// Duplicate is a name collision; status is 400 or 403 depending on the resource.
func Duplicate(status int, msg string) *Error {
	return &Error{Kind: KindDuplicate, Msg: msg, Status: status}
}

// Cipher wraps a credential encryption/decryption failure (500).
func Cipher(op string, err error) *Error {
	return &Error{Kind: KindCipher, Msg: "credential processing failed", Op: op, Err: err}
}

// Storage wraps an unhandled store failure (500).
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: "storage operation failed", Op: op, Err: err}
}

// RateLimited is a 429 throttle rejection.
func RateLimited(msg string) *Error { return New(KindRateLimit, "", msg) }

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the Reason of err, or "" when err is not an *Error.
func ReasonOf(err error) string {
	if e, ok := As(err); ok {
		return e.Reason
	}
	return ""
}
