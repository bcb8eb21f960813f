package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"go.uber.org/zap"
)

func TestLimiter_Window(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two events should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("third event should be refused")
	}
	if l.Remaining("a") != 0 || l.Remaining("b") != 2 {
		t.Errorf("Remaining a=%d b=%d", l.Remaining("a"), l.Remaining("b"))
	}
	if got := l.RetryAfter("a"); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}

	now = now.Add(time.Minute + time.Second)
	if !l.Allow("a") {
		t.Error("window should have reset")
	}

	l.Reset("a")
	if l.Remaining("a") != 2 {
		t.Errorf("Remaining after Reset = %d", l.Remaining("a"))
	}
}

func TestLimiter_NilAllowsEverything(t *testing.T) {
	l := New(0, time.Minute)
	if l != nil {
		t.Fatal("New with zero limit should return nil")
	}
	for i := 0; i < 100; i++ {
		if !l.Allow("x") {
			t.Fatal("nil limiter refused an event")
		}
	}
	l.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "10.0.0.2:80", "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.2:80", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.9:4321", "192.0.2.9"},
		{"remote addr without port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPerIP(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	h := PerIP(l, apierr.NewResponder(zap.NewNop(), false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	call := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/organizations", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	if rec := call(); rec.Code != http.StatusCreated {
		t.Fatalf("first call = %d", rec.Code)
	}
	rec := call()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second call = %d, want 429", rec.Code)
	}
	if rec.Header().Get(apierr.CodeHeader) != string(apierr.KindRateLimit) {
		t.Errorf("code header = %q", rec.Header().Get(apierr.CodeHeader))
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
