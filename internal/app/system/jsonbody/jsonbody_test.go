package jsonbody

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
)

func post(body string) (*httptest.ResponseRecorder, *http.Request) {
	return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantKeys int
	}{
		{"object", `{"color":"red","n":1}`, false, 2},
		{"nested object", `{"a":{"b":[{"c":1}]}}`, false, 1},
		{"empty body", ``, false, 0},
		{"empty object", `{}`, false, 0},
		{"array", `[1,2]`, true, 0},
		{"string", `"x"`, true, 0},
		{"null", `null`, false, 0},
		{"malformed", `{"a":`, true, 0},
		{"two values", `{} {}`, true, 0},
		{"dollar key", `{"$where":"1"}`, true, 0},
		{"dotted key", `{"a.b":1}`, true, 0},
		{"nested dollar key", `{"a":{"$gt":1}}`, true, 0},
		{"dollar key inside array", `{"a":[{"$x":1}]}`, true, 0},
		{"empty key", `{"":1}`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, r := post(tt.body)
			obj, err := DecodeObject(w, r, 0)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", obj)
				}
				if apierr.KindOf(err) != apierr.KindValidation {
					t.Errorf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(obj) != tt.wantKeys {
				t.Errorf("len(obj) = %d, want %d", len(obj), tt.wantKeys)
			}
		})
	}
}

func TestDecodeMap_Numbers(t *testing.T) {
	w, r := post(`{"big":9007199254740993,"neg":-7,"f":1.5,"exp":1e3,"list":[2,{"x":3}],"filter":{"$gt":4}}`)
	obj, err := DecodeMap(w, r, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"integer above 2^53", obj["big"], int64(9007199254740993)},
		{"negative integer", obj["neg"], int64(-7)},
		{"fraction", obj["f"], 1.5},
		{"exponent", obj["exp"], 1000.0},
		{"array element", obj["list"].([]interface{})[0], int64(2)},
		{"nested in array", obj["list"].([]interface{})[1].(map[string]interface{})["x"], int64(3)},
		{"operator keys allowed", obj["filter"].(map[string]interface{})["$gt"], int64(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}
}

func TestDecode_TooLarge(t *testing.T) {
	w, r := post(`{"data":"` + strings.Repeat("x", 100) + `"}`)
	var dst map[string]interface{}
	err := Decode(w, r, 16, &dst)
	e, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected *apierr.Error, got %v", err)
	}
	if e.HTTPStatus() != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", e.HTTPStatus())
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusOK, "deleted")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"deleted"}` {
		t.Errorf("body = %s", got)
	}
}
