package services

import (
	"strings"
	"testing"
)

func TestParseUTM(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want UTMParams
	}{
		{"empty", "", UTMParams{}},
		{"no params", "https://example.com/pricing", UTMParams{}},
		{
			"full set",
			"https://example.com/?utm_source=google&utm_medium=cpc&utm_campaign=launch&utm_term=crm&utm_content=ad1",
			UTMParams{Source: "google", Medium: "cpc", Campaign: "launch", Term: "crm", Content: "ad1"},
		},
		{
			"partial",
			"https://example.com/blog?utm_source=newsletter",
			UTMParams{Source: "newsletter"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseUTM(tt.url); got != tt.want {
				t.Fatalf("ParseUTM(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	if got := hashIP(""); got != "" {
		t.Fatalf("hashIP(\"\") = %q, want empty", got)
	}
	if got := hashIP("   "); got != "" {
		t.Fatalf("hashIP(whitespace) = %q, want empty", got)
	}

	h := hashIP("203.0.113.9")
	if len(h) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(h))
	}
	if strings.Contains(h, "203.0.113.9") {
		t.Fatalf("hash appears to leak the address: %q", h)
	}
	if hashIP("203.0.113.9") != h {
		t.Fatal("hash is not deterministic")
	}
	if hashIP("203.0.113.10") == h {
		t.Fatal("distinct addresses collided")
	}
	if hashIP(" 203.0.113.9 ") != h {
		t.Fatal("surrounding whitespace changed the hash")
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name        string
		ua          string
		wantDevice  string
		wantBrowser string
		wantOS      string
	}{
		{"empty", "", "desktop", "other", "other"},
		{
			"chrome on windows",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"desktop", "chrome", "windows",
		},
		{
			"safari on iphone",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			"mobile", "safari", "ios",
		},
		{
			"firefox on linux",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			"desktop", "firefox", "linux",
		},
		{
			"edge identifies before chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			"desktop", "edge", "windows",
		},
		{
			"chrome on android phone",
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			"mobile", "chrome", "android",
		},
		{
			"ipad is a tablet",
			"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			"tablet", "safari", "ios",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, browser, os := ParseUserAgent(tt.ua)
			if device != tt.wantDevice || browser != tt.wantBrowser || os != tt.wantOS {
				t.Fatalf("ParseUserAgent() = (%s, %s, %s), want (%s, %s, %s)",
					device, browser, os, tt.wantDevice, tt.wantBrowser, tt.wantOS)
			}
		})
	}
}
