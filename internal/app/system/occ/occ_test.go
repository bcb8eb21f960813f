package occ

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/store/memstore"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/domain/models"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1700000000000", 1700000000000, false},
		{"0", 0, false},
		{"abc", 0, true},
		{"1.5", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseToken(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseToken(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && apierr.ReasonOf(err) != apierr.ReasonInvalidToken {
			t.Errorf("ParseToken(%q) reason = %q", tt.in, apierr.ReasonOf(err))
		}
		if got != tt.want {
			t.Errorf("ParseToken(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMerge(t *testing.T) {
	doc := models.Document{
		"color": "red",
		"dims":  map[string]interface{}{"w": 1.0, "h": 2.0},
	}
	got := Merge(doc, map[string]interface{}{
		"color": "blue",
		"dims":  map[string]interface{}{"w": 5.0},
		"new":   true,
	})

	if got["color"] != "blue" || got["new"] != true {
		t.Errorf("top-level keys not overwritten: %#v", got)
	}
	dims := got["dims"].(map[string]interface{})
	if _, ok := dims["h"]; ok {
		t.Error("nested objects must be replaced, not deep-merged")
	}
	if doc["color"] != "red" {
		t.Error("Merge must not mutate its input")
	}
	if m := Merge(nil, map[string]interface{}{"a": 1.0}); m["a"] != 1.0 {
		t.Errorf("Merge(nil) = %#v", m)
	}
}

func TestNext(t *testing.T) {
	now := time.UnixMilli(5000)
	tests := []struct {
		prev int64
		want int64
	}{
		{1000, 5000},
		{5000, 5001},
		{9000, 9001},
	}
	for _, tt := range tests {
		if got := Next(tt.prev, now); got != tt.want {
			t.Errorf("Next(%d) = %d, want %d", tt.prev, got, tt.want)
		}
	}
}

func entityTarget(b store.Backend, validate func(context.Context, models.Entity) error) Target[models.Entity] {
	return Target[models.Entity]{
		Load: func(ctx context.Context) (models.Entity, error) {
			return b.Entities.Get(ctx, "o1", "c1", "e1")
		},
		Document: func(e *models.Entity) *models.Document { return &e.Data },
		Token:    func(e *models.Entity) *int64 { return &e.DateTimeLastUpdated },
		Validate: validate,
		Replace:  b.Entities.ReplaceIfToken,
		NotFound: "entity not found",
	}
}

func seed(t *testing.T) store.Backend {
	t.Helper()
	b := memstore.New().Backend()
	_, err := b.Entities.Create(context.Background(), models.Entity{
		OrganizationID: "o1", CollectionID: "c1", EntityID: "e1",
		DateTimeLastUpdated: 1000,
		Data:                models.Document{"color": "red"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}

func fixedClock() time.Time { return time.UnixMilli(2000) }

func TestUpdate(t *testing.T) {
	rejectBlue := func(_ context.Context, e models.Entity) error {
		if e.Data["color"] == "blue" {
			return apierr.Schema(apierr.ReasonValidationFailed, "no blue", errors.New("/color: blue"))
		}
		return nil
	}

	tests := []struct {
		name       string
		token      string
		patch      map[string]interface{}
		validate   func(context.Context, models.Entity) error
		wantStatus int
		wantColor  string
		wantToken  int64
	}{
		{name: "success", token: "1000", patch: map[string]interface{}{"color": "blue"}, wantStatus: 200, wantColor: "blue", wantToken: 2000},
		{name: "stale token", token: "999", patch: map[string]interface{}{"color": "blue"}, wantStatus: http.StatusForbidden, wantColor: "red", wantToken: 1000},
		{name: "malformed token", token: "soon", patch: map[string]interface{}{"color": "blue"}, wantStatus: http.StatusBadRequest, wantColor: "red", wantToken: 1000},
		{name: "validation failure", token: "1000", patch: map[string]interface{}{"color": "blue"}, validate: rejectBlue, wantStatus: http.StatusBadRequest, wantColor: "red", wantToken: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := seed(t)
			ctx := context.Background()

			_, err := Update(ctx, tt.token, tt.patch, fixedClock, entityTarget(b, tt.validate))
			status := 200
			if e, ok := apierr.As(err); ok {
				status = e.HTTPStatus()
			} else if err != nil {
				t.Fatalf("unexpected error type: %v", err)
			}
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (err %v)", status, tt.wantStatus, err)
			}

			stored, _ := b.Entities.Get(ctx, "o1", "c1", "e1")
			if stored.Data["color"] != tt.wantColor {
				t.Errorf("stored color = %v, want %v", stored.Data["color"], tt.wantColor)
			}
			if stored.DateTimeLastUpdated != tt.wantToken {
				t.Errorf("stored token = %d, want %d", stored.DateTimeLastUpdated, tt.wantToken)
			}
		})
	}
}

func TestUpdate_NotFound(t *testing.T) {
	b := memstore.New().Backend()
	_, err := Update(context.Background(), "1", nil, fixedClock, entityTarget(b, nil))
	if apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestUpdate_ConflictOnWrite(t *testing.T) {
	b := seed(t)
	target := entityTarget(b, nil)
	inner := target.Replace
	// Another writer lands between the token check and the write.
	target.Replace = func(ctx context.Context, e models.Entity, prev int64) error {
		other, _ := b.Entities.Get(ctx, "o1", "c1", "e1")
		other.DateTimeLastUpdated = 1500
		if err := inner(ctx, other, prev); err != nil {
			t.Fatalf("interleaved write: %v", err)
		}
		return inner(ctx, e, prev)
	}

	_, err := Update(context.Background(), "1000", map[string]interface{}{"color": "blue"}, fixedClock, target)
	if apierr.ReasonOf(err) != apierr.ReasonConflictOnWrite {
		t.Fatalf("err = %v, want ConflictOnWrite", err)
	}
	if e, _ := apierr.As(err); e.HTTPStatus() != http.StatusConflict {
		t.Errorf("status = %d, want 409", e.HTTPStatus())
	}
}

func TestUpdate_ConcurrentSameToken(t *testing.T) {
	b := seed(t)
	target := entityTarget(b, nil)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Update(context.Background(), "1000",
				map[string]interface{}{"writer": float64(i)}, time.Now, target)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if apierr.KindOf(err) != apierr.KindConcurrency {
			t.Errorf("loser err = %v, want ConcurrencyError", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d writers succeeded, want exactly 1", ok)
	}
}
