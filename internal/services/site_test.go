package services

import "testing"

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Example.COM", "example.com"},
		{"www.example.com", "example.com"},
		{"example.com:8080", "example.com"},
		{"WWW.Example.com:443", "example.com"},
		{"  example.com  ", "example.com"},
	}
	for _, tt := range tests {
		if got := normalizeDomain(tt.in); got != tt.want {
			t.Errorf("normalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://www.example.com/path?q=1", "example.com"},
		{"http://example.com:3000", "example.com"},
		{"example.com", "example.com"},
		{"https://sub.example.co.uk/contact", "sub.example.co.uk"},
	}
	for _, tt := range tests {
		if got := extractDomain(tt.in); got != tt.want {
			t.Errorf("extractDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"  Hello,   World!  ", "hello-world"},
		{"Already-Slugged", "already-slugged"},
		{"Launch 2024", "launch-2024"},
		{"***", ""},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
