package apierr

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// CodeHeader carries the error Kind on every error response.
const CodeHeader = "X-Rentity-Error-Code"

// Body is the JSON shape of every error response.
type Body struct {
	Error  string `json:"error"`
	Code   Kind   `json:"code"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Responder writes errors as JSON and logs them at a level matching their
// severity. Expose controls whether internal error text of 5xx failures is
// returned to the client; it should be false in production.
type Responder struct {
	Log    *zap.Logger
	Expose bool
}

// NewResponder constructs a Responder.
func NewResponder(logger *zap.Logger, expose bool) Responder {
	return Responder{Log: logger, Expose: expose}
}

// Write maps err onto a status code and JSON body.
func (rs Responder) Write(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	e, ok := As(err)
	if !ok {
		e = Storage("", err)
	}
	status := e.HTTPStatus()

	body := Body{Error: e.Msg, Code: e.Kind, Reason: e.Reason}
	if body.Error == "" {
		body.Error = http.StatusText(status)
	}
	switch {
	case status < http.StatusInternalServerError && e.Err != nil:
		// Client-caused failures (schema violations and the like) carry
		// detail the client needs to fix the request.
		body.Detail = e.Err.Error()
	case status >= http.StatusInternalServerError && rs.Expose && e.Err != nil:
		body.Detail = e.Err.Error()
	}

	rs.log(r, e, status)

	w.Header().Set(CodeHeader, string(e.Kind))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rs Responder) log(r *http.Request, e *Error, status int) {
	if rs.Log == nil {
		return
	}
	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}
	if e.Op != "" {
		fields = append(fields, zap.String("op", e.Op))
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if status >= http.StatusInternalServerError {
		rs.Log.Error("request failed", append(fields, zap.Error(e.Err))...)
		return
	}
	switch e.Kind {
	case KindAuth, KindAuthz, KindConcurrency:
		rs.Log.Warn("request rejected", fields...)
	default:
		rs.Log.Debug("request rejected", fields...)
	}
}
