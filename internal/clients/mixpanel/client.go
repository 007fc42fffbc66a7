package mixpanel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vjbollavarapu/sitebackend/internal/httpx"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
)

type Client interface {
	Track(ctx context.Context, distinctID, event string, properties map[string]interface{}) error
}

type Config struct {
	ProjectToken string
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		ProjectToken: strings.TrimSpace(os.Getenv("MIXPANEL_PROJECT_TOKEN")),
		BaseURL:      utils.GetEnv("MIXPANEL_BASE_URL", "https://api.mixpanel.com", log),
		Timeout:      time.Duration(utils.GetEnvAsInt("MIXPANEL_TIMEOUT_SECONDS", 10, log)) * time.Second,
		MaxRetries:   utils.GetEnvAsInt("MIXPANEL_MAX_RETRIES", 2, log),
	}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ProjectToken == "" {
		return nil, fmt.Errorf("missing MIXPANEL_PROJECT_TOKEN")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mixpanel.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "MixpanelClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type trackEvent struct {
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties"`
}

func (c *client) Track(ctx context.Context, distinctID, event string, properties map[string]interface{}) error {
	if event == "" {
		return fmt.Errorf("mixpanel: event name required")
	}
	props := map[string]interface{}{
		"token":       c.cfg.ProjectToken,
		"time":        time.Now().Unix(),
		"distinct_id": distinctID,
	}
	for k, v := range properties {
		props[k] = v
	}
	payload := []trackEvent{{Event: event, Properties: props}}

	return httpx.DoWithRetry(ctx, c.cfg.MaxRetries, 500*time.Millisecond, func() (*http.Response, error) {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/track", &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/plain")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		}
		// The ingestion endpoint answers "1" on success and "0" on a
		// rejected batch.
		if strings.TrimSpace(string(raw)) == "0" {
			return resp, fmt.Errorf("mixpanel rejected event %q", event)
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
		return "mixpanel: <nil error>"
	}
	return fmt.Sprintf("mixpanel http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
