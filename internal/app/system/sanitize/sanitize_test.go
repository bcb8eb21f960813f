package sanitize_test

import (
	"testing"

	"github.com/dalemusser/rentity/internal/app/system/sanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Jane", "Jane"},
		{"trimmed", "  Jane  ", "Jane"},
		{"bold tag", "<b>Jane</b>", "Jane"},
		{"script removed with content", "<script>alert('xss')</script>Jane", "Jane"},
		{"onclick attribute", `<span onclick="steal()">Doe</span>`, "Doe"},
		{"ampersand kept", "Smith & Co", "Smith & Co"},
		{"apostrophe kept", "O'Brien", "O'Brien"},
		{"only markup", "<img src=x onerror=alert(1)>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
