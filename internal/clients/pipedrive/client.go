package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vjbollavarapu/sitebackend/internal/httpx"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
)

type Client interface {
	UpsertPerson(ctx context.Context, person Person) (string, error)
	CreateNote(ctx context.Context, personID, content string) (string, error)
	CreateDeal(ctx context.Context, personID, title string) (string, error)
}

type Person struct {
	Email string
	Name  string
	Phone string
	Org   string
}

type Config struct {
	APIToken   string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		APIToken:   strings.TrimSpace(os.Getenv("PIPEDRIVE_API_TOKEN")),
		BaseURL:    utils.GetEnv("PIPEDRIVE_BASE_URL", "https://api.pipedrive.com/v1", log),
		Timeout:    time.Duration(utils.GetEnvAsInt("PIPEDRIVE_TIMEOUT_SECONDS", 30, log)) * time.Second,
		MaxRetries: utils.GetEnvAsInt("PIPEDRIVE_MAX_RETRIES", 3, log),
	}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("missing PIPEDRIVE_API_TOKEN")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.pipedrive.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &client{
		log:        log.With("client", "PipedriveClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items []struct {
			Item struct {
				ID int `json:"id"`
			} `json:"item"`
		} `json:"items"`
	} `json:"data"`
}

type personResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID int `json:"id"`
	} `json:"data"`
}

// UpsertPerson searches by exact email and updates the match, or creates a
// new person. Returns the Pipedrive person id as a string.
func (c *client) UpsertPerson(ctx context.Context, person Person) (string, error) {
	email := strings.TrimSpace(strings.ToLower(person.Email))
	if email == "" {
		return "", fmt.Errorf("pipedrive: email required")
	}

	q := url.Values{}
	q.Set("term", email)
	q.Set("fields", "email")
	q.Set("exact_match", "true")
	var found searchResponse
	if err := c.do(ctx, "GET", "/persons/search", q, nil, &found); err != nil {
		return "", err
	}

	body := map[string]interface{}{
		"name":  person.Name,
		"email": []map[string]interface{}{{"value": email, "primary": true}},
	}
	if body["name"] == "" {
		body["name"] = email
	}
	if person.Phone != "" {
		body["phone"] = []map[string]interface{}{{"value": person.Phone, "primary": true}}
	}

	var out personResponse
	if len(found.Data.Items) > 0 {
		id := found.Data.Items[0].Item.ID
		if err := c.do(ctx, "PUT", "/persons/"+strconv.Itoa(id), nil, body, &out); err != nil {
			return "", err
		}
		return strconv.Itoa(id), nil
	}

	if err := c.do(ctx, "POST", "/persons", nil, body, &out); err != nil {
		return "", err
	}
	return strconv.Itoa(out.Data.ID), nil
}

// CreateNote attaches a note to an existing person.
func (c *client) CreateNote(ctx context.Context, personID, content string) (string, error) {
	id, err := strconv.Atoi(personID)
	if err != nil {
		return "", fmt.Errorf("pipedrive: invalid person id %q", personID)
	}
	body := map[string]interface{}{
		"content":   content,
		"person_id": id,
	}
	var out personResponse
	if err := c.do(ctx, "POST", "/notes", nil, body, &out); err != nil {
		return "", err
	}
	return strconv.Itoa(out.Data.ID), nil
}

// CreateDeal opens a deal on the person.
func (c *client) CreateDeal(ctx context.Context, personID, title string) (string, error) {
	id, err := strconv.Atoi(personID)
	if err != nil {
		return "", fmt.Errorf("pipedrive: invalid person id %q", personID)
	}
	body := map[string]interface{}{
		"title":     title,
		"person_id": id,
	}
	var out personResponse
	if err := c.do(ctx, "POST", "/deals", nil, body, &out); err != nil {
		return "", err
	}
	return strconv.Itoa(out.Data.ID), nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "pipedrive: <nil error>"
	}
	return fmt.Sprintf("pipedrive http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	return httpx.DoWithRetry(ctx, c.cfg.MaxRetries, time.Second, func() (*http.Response, error) {
		q := url.Values{}
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		q.Set("api_token", c.cfg.APIToken)

		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path+"?"+q.Encode(), &buf)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return resp, readErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg := strings.TrimSpace(string(raw))
			if len(msg) > 2000 {
				msg = msg[:2000] + "..."
			}
			return resp, &HTTPError{StatusCode: resp.StatusCode, Body: msg}
		}
		if out != nil && len(raw) > 0 {
			if decodeErr := json.Unmarshal(raw, out); decodeErr != nil {
				return resp, fmt.Errorf("pipedrive decode: %w", decodeErr)
			}
		}
		return resp, nil
	})
}
