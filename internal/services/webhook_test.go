package services

import (
	"strings"
	"testing"
)

func TestSign(t *testing.T) {
	s := &webhookService{}

	// Known HMAC-SHA256 vector.
	got := s.Sign("key", []byte("The quick brown fox jumps over the lazy dog"))
	want := "sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Fatalf("Sign() = %q, want %q", got, want)
	}
}

func TestSignProperties(t *testing.T) {
	s := &webhookService{}
	payload := []byte(`{"event":"lead.captured"}`)

	sig := s.Sign("whsec_abc", payload)
	if !strings.HasPrefix(sig, "sha256=") {
		t.Fatalf("signature missing prefix: %q", sig)
	}
	if len(sig) != len("sha256=")+64 {
		t.Fatalf("unexpected signature length: %d", len(sig))
	}
	if s.Sign("whsec_abc", payload) != sig {
		t.Fatal("signature not deterministic")
	}
	if s.Sign("whsec_other", payload) == sig {
		t.Fatal("different secrets produced the same signature")
	}
	if s.Sign("whsec_abc", []byte(`{"event":"contact.submitted"}`)) == sig {
		t.Fatal("different payloads produced the same signature")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"", 5, ""},
		{"abc", 5, "abc"},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
