package utils

import "testing"

func TestPathFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/pricing", "/pricing"},
		{"  /pricing  ", "/pricing"},
		{"https://example.com/pricing?plan=pro", "/pricing"},
		{"https://example.com/", "/"},
	}
	for _, tt := range tests {
		if got := PathFromURL(tt.in); got != tt.want {
			t.Errorf("PathFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortToken(t *testing.T) {
	if got := ShortToken(0); got != "" {
		t.Fatalf("ShortToken(0) = %q, want empty", got)
	}
	tok := ShortToken(12)
	if len(tok) != 12 {
		t.Fatalf("ShortToken(12) length = %d", len(tok))
	}
	if tok == ShortToken(12) {
		t.Fatal("tokens should not repeat")
	}
}

func TestSecureToken(t *testing.T) {
	tok := SecureToken()
	if len(tok) != 43 {
		t.Fatalf("SecureToken() length = %d, want 43", len(tok))
	}
	if tok == SecureToken() {
		t.Fatal("tokens should not repeat")
	}
}
