package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/clients/recaptcha"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var defaultSpamKeywords = []string{
	"viagra", "cialis", "casino", "lottery", "winner", "congratulations",
	"free money", "make money fast", "work from home", "weight loss",
	"crypto investment", "forex", "click here", "limited time offer",
	"act now", "100% free", "guaranteed", "no obligation", "risk free",
	"seo services", "backlinks", "cheap followers",
}

var defaultDisposableDomains = []string{
	"mailinator.com", "guerrillamail.com", "10minutemail.com", "tempmail.com",
	"throwaway.email", "temp-mail.org", "fakeinbox.com", "trashmail.com",
	"yopmail.com", "sharklasers.com", "getnada.com", "maildrop.cc",
}

var (
	emailPattern     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	linkPattern      = regexp.MustCompile(`https?://[^\s]+`)
	digitRunPattern  = regexp.MustCompile(`\d{4,}`)
	symbolRunPattern = regexp.MustCompile(`[!@#$%^&*()]{3,}`)
)

type SpamCheckInput struct {
	SiteID         uuid.UUID
	Email          string
	Name           string
	Subject        string
	Message        string
	RecaptchaToken string
	ClientIP       string
}

type SpamCheckResult struct {
	Score   float64
	IsSpam  bool
	Reasons []string
}

type SpamService interface {
	CheckSubmission(ctx context.Context, input SpamCheckInput) SpamCheckResult
}

type spamService struct {
	log             *logger.Logger
	recaptchaClient recaptcha.Client
	keywords        []string
	disposable      []string
	blacklist       map[string]bool
	threshold       float64
}

func NewSpamService(log *logger.Logger, recaptchaClient recaptcha.Client) SpamService {
	blacklist := map[string]bool{}
	for _, e := range strings.Split(os.Getenv("SPAM_BLACKLISTED_EMAILS"), ",") {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			blacklist[e] = true
		}
	}
	keywords := defaultSpamKeywords
	if raw := strings.TrimSpace(os.Getenv("SPAM_KEYWORDS")); raw != "" {
		keywords = nil
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(strings.ToLower(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	return &spamService{
		log:             log.With("service", "SpamService"),
		recaptchaClient: recaptchaClient,
		keywords:        keywords,
		disposable:      defaultDisposableDomains,
		blacklist:       blacklist,
		threshold:       0.7,
	}
}

// CheckSubmission accumulates a spam score in [0,1]. A failed captcha or a
// blacklisted address is decisive on its own; the rest add fractional
// weight. Anything above 0.7 is spam. Honeypot and rate-limit breaches are
// rejected upstream before scoring ever runs.
func (s *spamService) CheckSubmission(ctx context.Context, input SpamCheckInput) SpamCheckResult {
	result := SpamCheckResult{}

	if s.recaptchaClient != nil && s.recaptchaClient.Enabled() {
		if strings.TrimSpace(input.RecaptchaToken) == "" {
			result.Score += 0.3
			result.Reasons = append(result.Reasons, "recaptcha_missing")
		} else {
			verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			verification, err := s.recaptchaClient.Verify(verifyCtx, input.RecaptchaToken, input.ClientIP)
			cancel()
			if err != nil {
				s.log.Warn("reCAPTCHA verification error, skipping signal", "error", err)
			} else if !verification.Success {
				result.Score = 1.0
				result.IsSpam = true
				result.Reasons = append(result.Reasons, "recaptcha_failed")
				return result
			} else if required := s.recaptchaClient.RequiredScore(); verification.Score < required {
				result.Score += (required - verification.Score) * 0.5
				result.Reasons = append(result.Reasons, "recaptcha_low_score")
			}
		}
	}

	contentScore, contentReasons := s.scoreContent(input.Email, input.Message, input.Name, input.Subject)
	result.Score += contentScore
	result.Reasons = append(result.Reasons, contentReasons...)

	if result.Score > 1.0 {
		result.Score = 1.0
	}
	if result.Score < 0 {
		result.Score = 0
	}
	result.IsSpam = result.Score > s.threshold
	return result
}

func (s *spamService) scoreContent(email, message, name, subject string) (float64, []string) {
	var score float64
	var reasons []string

	email = strings.TrimSpace(strings.ToLower(email))
	// Keywords hide in the name and subject lines as often as the body.
	lowerText := strings.ToLower(message + " " + name + " " + subject)

	if s.blacklist[email] {
		return 1.0, []string{"blacklisted_email"}
	}

	if !emailPattern.MatchString(email) {
		score += 0.2
		reasons = append(reasons, "invalid_email")
	} else {
		domain := email[strings.LastIndex(email, "@")+1:]
		for _, d := range s.disposable {
			if domain == d {
				score += 0.3
				reasons = append(reasons, "disposable_domain")
				break
			}
		}
	}

	for _, kw := range s.keywords {
		if strings.Contains(lowerText, kw) {
			score += 0.15
			reasons = append(reasons, "keyword:"+kw)
		}
	}

	if len(linkPattern.FindAllString(message, -1)) > 3 {
		score += 0.2
		reasons = append(reasons, "too_many_links")
	}

	if ratio, letters := capsRatio(message); letters > 20 && ratio > 0.7 {
		score += 0.1
		reasons = append(reasons, "excessive_caps")
	}

	if hasRepeatedRun(message, 5) {
		score += 0.1
		reasons = append(reasons, "repeated_characters")
	}

	if digitRunPattern.MatchString(message) || symbolRunPattern.MatchString(message) {
		score += 0.1
		reasons = append(reasons, "suspicious_pattern")
	}

	if len(strings.TrimSpace(message)) < 15 {
		score += 0.1
		reasons = append(reasons, "message_too_short")
	}

	return score, reasons
}

// capsRatio returns the share of letters that are upper case along with the
// total letter count.
func capsRatio(s string) (float64, int) {
	var upper, letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0, 0
	}
	return float64(upper) / float64(letters), letters
}

// hasRepeatedRun reports whether any rune repeats n or more times in a row.
// Spelled out by hand because RE2 has no backreferences.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
