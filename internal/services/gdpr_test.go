package services

import "testing"

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane@acme.com", "j***@acme.com"},
		{"a@b.io", "a***@b.io"},
		{"no-at-sign", "***"},
		{"@acme.com", "***"},
	}
	for _, tt := range tests {
		if got := anonymizeEmail(tt.in); got != tt.want {
			t.Errorf("anonymizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashEmail(t *testing.T) {
	h := hashEmail("jane@acme.com")
	if len(h) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h))
	}
	if h != hashEmail("jane@acme.com") {
		t.Fatal("hash not deterministic")
	}
	if h == hashEmail("john@acme.com") {
		t.Fatal("distinct emails produced identical hashes")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := normalizeEmail("  Jane@ACME.com "); got != "jane@acme.com" {
		t.Fatalf("normalizeEmail() = %q", got)
	}
}
