// Package jsonbody reads JSON request bodies and writes JSON responses.
package jsonbody

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
)

// DefaultLimit caps request bodies when no limit is configured.
const DefaultLimit int64 = 1 << 20

// Decode reads one JSON value from r's body into dst. An empty body leaves
// dst untouched. Failures are ValidationErrors (413 when over limit).
func Decode(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	return decode(w, r, limit, dst, false)
}

func decode(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}, useNumber bool) error {
	if limit <= 0 {
		limit = DefaultLimit
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if useNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			e := apierr.Validation(apierr.ReasonInvalidBody, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			e.Status = http.StatusRequestEntityTooLarge
			return e
		}
		return &apierr.Error{
			Kind:   apierr.KindValidation,
			Reason: apierr.ReasonInvalidBody,
			Msg:    "request body is not valid JSON",
			Err:    err,
		}
	}
	if dec.More() {
		return apierr.Validation(apierr.ReasonInvalidBody, "request body must contain a single JSON value")
	}
	return nil
}

// DecodeMap reads a JSON object body without checking its keys. An empty
// body yields an empty object. Integers that fit are int64, other numbers
// float64 (see Numbers).
func DecodeMap(w http.ResponseWriter, r *http.Request, limit int64) (map[string]interface{}, error) {
	var raw interface{}
	if err := decode(w, r, limit, &raw, true); err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]interface{}{}, nil
	}
	obj, ok := Numbers(raw).(map[string]interface{})
	if !ok {
		return nil, apierr.Validation(apierr.ReasonInvalidBody, "request body must be a JSON object")
	}
	return obj, nil
}

// DecodeObject is DecodeMap with the keys checked by CheckKeys.
func DecodeObject(w http.ResponseWriter, r *http.Request, limit int64) (map[string]interface{}, error) {
	obj, err := DecodeMap(w, r, limit)
	if err != nil {
		return nil, err
	}
	if err := CheckKeys(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Numbers replaces every json.Number in v, recursively: integers that fit
// become int64, everything else float64.
func Numbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		for k, vv := range t {
			t[k] = Numbers(vv)
		}
		return t
	case []interface{}:
		for i, vv := range t {
			t[i] = Numbers(vv)
		}
		return t
	}
	return v
}

// CheckKeys rejects field names the document store cannot hold safely:
// empty names, names starting with '$', and names containing '.'. Nested
// objects and arrays are checked recursively.
func CheckKeys(v interface{}) error {
	return checkKeys(v, "")
}

func checkKeys(v interface{}, path string) error {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, vv := range t {
			p := k
			if path != "" {
				p = path + "/" + k
			}
			if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
				return apierr.Validation(apierr.ReasonInvalidBody,
					fmt.Sprintf("invalid field name %q: names must be non-empty, must not start with '$' and must not contain '.'", p))
			}
			if err := checkKeys(vv, p); err != nil {
				return err
			}
		}
	case []interface{}:
		for i, vv := range t {
			if err := checkKeys(vv, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]string{"message": msg})
}
