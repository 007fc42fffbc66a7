package services

import (
	"strings"
	"testing"
)

func newTestSpamService() *spamService {
	return &spamService{
		keywords:   defaultSpamKeywords,
		disposable: defaultDisposableDomains,
		blacklist:  map[string]bool{"banned@example.com": true},
		threshold:  0.7,
	}
}

func TestScoreContent(t *testing.T) {
	s := newTestSpamService()

	tests := []struct {
		name       string
		email      string
		message    string
		fromName   string
		subject    string
		wantReason string
		wantClean  bool
	}{
		{
			name:      "legitimate message",
			email:     "jane@acme.com",
			message:   "Hello, I would like to learn more about your enterprise pricing options.",
			wantClean: true,
		},
		{
			name:       "blacklisted email",
			email:      "banned@example.com",
			message:    "A perfectly reasonable message that is long enough.",
			wantReason: "blacklisted_email",
		},
		{
			name:       "invalid email",
			email:      "not-an-email",
			message:    "A perfectly reasonable message that is long enough.",
			wantReason: "invalid_email",
		},
		{
			name:       "disposable domain",
			email:      "bot@mailinator.com",
			message:    "A perfectly reasonable message that is long enough.",
			wantReason: "disposable_domain",
		},
		{
			name:       "spam keyword",
			email:      "jane@acme.com",
			message:    "Congratulations winner, claim your free money today, it is long enough.",
			wantReason: "keyword:winner",
		},
		{
			name:       "too many links",
			email:      "jane@acme.com",
			message:    "see http://a.com http://b.com http://c.com http://d.com for details",
			wantReason: "too_many_links",
		},
		{
			name:       "short message",
			email:      "jane@acme.com",
			message:    "hi",
			wantReason: "message_too_short",
		},
		{
			name:       "repeated characters",
			email:      "jane@acme.com",
			message:    "pleaseeeeee respond to my message right away",
			wantReason: "repeated_characters",
		},
		{
			name:       "digit run",
			email:      "jane@acme.com",
			message:    "call me at 5551234 whenever works, the message is long enough",
			wantReason: "suspicious_pattern",
		},
		{
			name:       "keyword in subject",
			email:      "jane@acme.com",
			message:    "A perfectly reasonable message that is long enough.",
			subject:    "Claim your free money now",
			wantReason: "keyword:free money",
		},
		{
			name:       "keyword in sender name",
			email:      "jane@acme.com",
			message:    "A perfectly reasonable message that is long enough.",
			fromName:   "Casino Winner",
			wantReason: "keyword:casino",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasons := s.scoreContent(tt.email, tt.message, tt.fromName, tt.subject)
			if tt.wantClean {
				if score != 0 || len(reasons) != 0 {
					t.Fatalf("expected clean result, got score=%v reasons=%v", score, reasons)
				}
				return
			}
			found := false
			for _, r := range reasons {
				if r == tt.wantReason {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected reason %q in %v (score=%v)", tt.wantReason, reasons, score)
			}
			if score <= 0 {
				t.Fatalf("expected positive score, got %v", score)
			}
		})
	}
}

func TestScoreContentBlacklistIsDecisive(t *testing.T) {
	s := newTestSpamService()
	score, reasons := s.scoreContent("banned@example.com", "anything", "", "")
	if score != 1.0 {
		t.Fatalf("expected score 1.0, got %v", score)
	}
	if len(reasons) != 1 || reasons[0] != "blacklisted_email" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}

func TestScoreContentKeywordsStack(t *testing.T) {
	s := newTestSpamService()
	single, _ := s.scoreContent("jane@acme.com", "guaranteed results, this message is long enough to pass", "", "")
	double, _ := s.scoreContent("jane@acme.com", "guaranteed risk free results, this message is long enough", "", "")
	if double <= single {
		t.Fatalf("expected stacked keywords to raise score: single=%v double=%v", single, double)
	}
}

func TestCapsRatio(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantRatio   float64
		wantLetters int
	}{
		{"empty", "", 0, 0},
		{"no letters", "1234 !!", 0, 0},
		{"all caps", "HELLO", 1, 5},
		{"mixed caps", "HEllo World", 3.0 / 10.0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, letters := capsRatio(tt.in)
			if letters != tt.wantLetters {
				t.Fatalf("letters = %d, want %d", letters, tt.wantLetters)
			}
			if ratio != tt.wantRatio {
				t.Fatalf("ratio = %v, want %v", ratio, tt.wantRatio)
			}
		})
	}
}

func TestHasRepeatedRun(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want bool
	}{
		{"", 5, false},
		{"hello", 5, false},
		{"aaaa", 5, false},
		{"aaaaa", 5, true},
		{"xaaaaay", 5, true},
		{strings.Repeat("ab", 10), 5, false},
	}
	for _, tt := range tests {
		if got := hasRepeatedRun(tt.in, tt.n); got != tt.want {
			t.Errorf("hasRepeatedRun(%q, %d) = %v, want %v", tt.in, tt.n, got, tt.want)
		}
	}
}
