package paging

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParse(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name       string
		query      string
		cfg        Config
		wantLimit  int
		wantAfter  primitive.ObjectID
		wantReason string
	}{
		{name: "defaults", query: "", wantLimit: DefaultLimit},
		{name: "explicit limit", query: "?limit=2", wantLimit: 2},
		{name: "clamped limit", query: "?limit=500", wantLimit: MaxLimit},
		{name: "configured default", query: "", cfg: Config{Default: 5, Max: 20}, wantLimit: 5},
		{name: "configured max", query: "?limit=30", cfg: Config{Default: 5, Max: 20}, wantLimit: 20},
		{name: "default above max", query: "", cfg: Config{Default: 100, Max: 20}, wantLimit: 20},
		{name: "cursor", query: "?next=" + oid.Hex(), wantLimit: DefaultLimit, wantAfter: oid},
		{name: "zero limit", query: "?limit=0", wantReason: apierr.ReasonInvalidLimit},
		{name: "negative limit", query: "?limit=-3", wantReason: apierr.ReasonInvalidLimit},
		{name: "non-numeric limit", query: "?limit=ten", wantReason: apierr.ReasonInvalidLimit},
		{name: "bad cursor", query: "?next=42", wantReason: apierr.ReasonInvalidCursor},
		{name: "zero cursor", query: "?next=000000000000000000000000", wantReason: apierr.ReasonInvalidCursor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/queries"+tt.query, nil)
			p, err := Parse(r, tt.cfg)
			if tt.wantReason != "" {
				if apierr.ReasonOf(err) != tt.wantReason {
					t.Fatalf("error = %v, want reason %q", err, tt.wantReason)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.After != tt.wantAfter {
				t.Errorf("After = %s, want %s", p.After.Hex(), tt.wantAfter.Hex())
			}
			if p.FetchLimit() != int64(tt.wantLimit) {
				t.Errorf("FetchLimit() = %d", p.FetchLimit())
			}
		})
	}
}

type row struct{ id primitive.ObjectID }

func rowID(r row) primitive.ObjectID { return r.id }

func makeRows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{id: primitive.NewObjectID()}
	}
	return out
}

func TestTrimPage(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		limit     int
		wantItems int
		wantNext  bool
	}{
		{"empty", 0, 2, 0, false},
		{"fewer than limit", 1, 2, 1, false},
		{"exactly limit", 2, 2, 2, true},
		{"more than limit", 3, 2, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := makeRows(tt.rows)
			page := TrimPage(rows, tt.limit, rowID)
			if len(page.Items) != tt.wantItems {
				t.Fatalf("len(Items) = %d, want %d", len(page.Items), tt.wantItems)
			}
			if (page.Next != "") != tt.wantNext {
				t.Fatalf("Next = %q, wantNext %v", page.Next, tt.wantNext)
			}
			if tt.wantNext && page.Next != rows[tt.limit-1].id.Hex() {
				t.Errorf("Next = %q, want id of last returned row", page.Next)
			}
			if page.Items == nil {
				t.Error("Items must be non-nil so it encodes as []")
			}
		})
	}
}
