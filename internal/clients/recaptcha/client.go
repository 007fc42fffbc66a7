package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
)

type Client interface {
	Verify(ctx context.Context, token, remoteIP string) (*VerifyResult, error)
	Enabled() bool
	RequiredScore() float64
}

type Config struct {
	SecretKey     string
	BaseURL       string
	RequiredScore float64
	Timeout       time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	score := 0.5
	if raw := strings.TrimSpace(os.Getenv("RECAPTCHA_REQUIRED_SCORE")); raw != "" {
		if _, err := fmt.Sscanf(raw, "%f", &score); err != nil {
			score = 0.5
		}
	}
	return Config{
		SecretKey:     strings.TrimSpace(os.Getenv("RECAPTCHA_SECRET_KEY")),
		BaseURL:       utils.GetEnv("RECAPTCHA_BASE_URL", "https://www.google.com/recaptcha/api", log),
		RequiredScore: score,
		Timeout:       10 * time.Second,
	}
}

type VerifyResult struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// New never fails on a missing secret: an unconfigured client reports
// Enabled()==false and the spam checker treats verification as skipped.
func New(log *logger.Logger, cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.google.com/recaptcha/api"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequiredScore <= 0 || cfg.RequiredScore > 1 {
		cfg.RequiredScore = 0.5
	}
	return &client{
		log:        log.With("client", "RecaptchaClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *client) Enabled() bool {
	return c != nil && c.cfg.SecretKey != ""
}

func (c *client) RequiredScore() float64 {
	return c.cfg.RequiredScore
}

func (c *client) Verify(ctx context.Context, token, remoteIP string) (*VerifyResult, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("recaptcha not configured")
	}
	form := url.Values{}
	form.Set("secret", c.cfg.SecretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/siteverify", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recaptcha http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out VerifyResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("recaptcha decode: %w", err)
	}
	return &out, nil
}
