package ga4

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/vjbollavarapu/sitebackend/internal/httpx"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
)

// Client speaks the GA4 Measurement Protocol.
type Client interface {
	SendEvent(ctx context.Context, clientID, name string, params map[string]interface{}) error
}

type Config struct {
	MeasurementID string
	APISecret     string
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		MeasurementID: strings.TrimSpace(os.Getenv("GA4_MEASUREMENT_ID")),
		APISecret:     strings.TrimSpace(os.Getenv("GA4_API_SECRET")),
		BaseURL:       utils.GetEnv("GA4_BASE_URL", "https://www.google-analytics.com", log),
		Timeout:       time.Duration(utils.GetEnvAsInt("GA4_TIMEOUT_SECONDS", 10, log)) * time.Second,
		MaxRetries:    utils.GetEnvAsInt("GA4_MAX_RETRIES", 2, log),
	}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MeasurementID == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("missing GA4_MEASUREMENT_ID or GA4_API_SECRET")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.google-analytics.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "GA4Client"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type collectPayload struct {
	ClientID string         `json:"client_id"`
	Events   []collectEvent `json:"events"`
}

type collectEvent struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params,omitempty"`
}

func (c *client) SendEvent(ctx context.Context, clientID, name string, params map[string]interface{}) error {
	if clientID == "" || name == "" {
		return fmt.Errorf("ga4: client id and event name required")
	}
	payload := collectPayload{
		ClientID: clientID,
		Events:   []collectEvent{{Name: name, Params: params}},
	}

	q := url.Values{}
	q.Set("measurement_id", c.cfg.MeasurementID)
	q.Set("api_secret", c.cfg.APISecret)

	return httpx.DoWithRetry(ctx, c.cfg.MaxRetries, 500*time.Millisecond, func() (*http.Response, error) {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/mp/collect?"+q.Encode(), &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		// The collect endpoint returns 2xx even for malformed events; only
		// transport-level failures are actionable here.
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		}
		return resp, nil
	})
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "ga4: <nil error>"
	}
	return fmt.Sprintf("ga4 http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
