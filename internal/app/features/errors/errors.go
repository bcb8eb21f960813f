// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
)

// Handler answers requests no route claimed, in the same JSON shape as
// every other API error.
type Handler struct {
	Errors apierr.Responder
}

// NewHandler constructs an errors Handler.
func NewHandler(errs apierr.Responder) *Handler {
	return &Handler{Errors: errs}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Errors.Write(w, r, apierr.NotFound("no route for "+r.Method+" "+r.URL.Path))
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	e := apierr.Validation(apierr.ReasonInvalidBody, r.Method+" is not supported on "+r.URL.Path)
	e.Status = http.StatusMethodNotAllowed
	h.Errors.Write(w, r, e)
}
