// Package inputval validates decoded request bodies with struct tags
// (github.com/go-playground/validator/v10). Field names in results are the
// JSON names, so they can be reported to clients as-is.
package inputval

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// "notblank" rejects whitespace-only strings that "required" accepts.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// FieldError is one failed rule.
type FieldError struct {
	Field string // JSON field name
	Tag   string // failed rule, e.g. "required", "email"
}

// Errors lists every failed rule of one struct.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+" ("+fe.Tag+")")
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// Fields returns the names of fields that failed any of the given tags
// (all failed fields when no tags are given).
func (e Errors) Fields(tags ...string) []string {
	var out []string
	for _, fe := range e {
		if len(tags) == 0 || contains(tags, fe.Tag) {
			out = append(out, fe.Field)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Struct validates v. It returns nil when v is valid.
func Struct(v interface{}) Errors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "", Tag: err.Error()}}
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag()})
	}
	return out
}

// IsValidEmail reports whether s is a syntactically valid address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return validate.Var(s, "email") == nil
}
