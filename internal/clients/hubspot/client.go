package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	UpsertContact(ctx context.Context, contact Contact) (string, error)
	CreateNote(ctx context.Context, contactID, body string) (string, error)
	CreateDeal(ctx context.Context, contactID, name string) (string, error)
}

type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Company   string
	JobTitle  string
	Industry  string
	Source    string
}

type Config struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		AccessToken: strings.TrimSpace(os.Getenv("HUBSPOT_ACCESS_TOKEN")),
		BaseURL:     utils.GetEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com", log),
		Timeout:     time.Duration(utils.GetEnvAsInt("HUBSPOT_TIMEOUT_SECONDS", 30, log)) * time.Second,
		MaxRetries:  utils.GetEnvAsInt("HUBSPOT_MAX_RETRIES", 3, log),
	}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("missing HUBSPOT_ACCESS_TOKEN")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.hubapi.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &client{
		log:        log.With("client", "HubSpotClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type contactProperties struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstname,omitempty"`
	LastName       string `json:"lastname,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Company        string `json:"company,omitempty"`
	JobTitle       string `json:"jobtitle,omitempty"`
	Industry       string `json:"industry,omitempty"`
	LeadSource     string `json:"hs_lead_source,omitempty"`
	LifecycleStage string `json:"lifecyclestage,omitempty"`
}

type contactObject struct {
	ID         string            `json:"id"`
	Properties contactProperties `json:"properties"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Limit        int           `json:"limit"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchResponse struct {
	Total   int             `json:"total"`
	Results []contactObject `json:"results"`
}

func toProperties(c Contact) contactProperties {
	return contactProperties{
		Email:          strings.TrimSpace(strings.ToLower(c.Email)),
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Phone:          c.Phone,
		Company:        c.Company,
		JobTitle:       c.JobTitle,
		Industry:       c.Industry,
		LeadSource:     c.Source,
		LifecycleStage: "lead",
	}
}

// UpsertContact searches by email first; an existing contact is patched,
// otherwise a new one is created. Returns the HubSpot object id.
func (c *client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	email := strings.TrimSpace(strings.ToLower(contact.Email))
	if email == "" {
		return "", fmt.Errorf("hubspot: email required")
	}

	search := searchRequest{
		FilterGroups: []filterGroup{{Filters: []filter{{
			PropertyName: "email",
			Operator:     "EQ",
			Value:        email,
		}}}},
		Limit: 1,
	}
	var found searchResponse
	if err := c.do(ctx, "POST", "/crm/v3/objects/contacts/search", search, &found); err != nil {
		return "", err
	}

	body := map[string]interface{}{"properties": toProperties(contact)}
	if len(found.Results) > 0 {
		id := found.Results[0].ID
		var updated contactObject
		if err := c.do(ctx, "PATCH", "/crm/v3/objects/contacts/"+id, body, &updated); err != nil {
			return "", err
		}
		return id, nil
	}

	var created contactObject
	if err := c.do(ctx, "POST", "/crm/v3/objects/contacts", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// Association type ids are HubSpot-defined: 202 is note-to-contact,
// 3 is deal-to-contact.
func association(contactID string, typeID int) []map[string]interface{} {
	return []map[string]interface{}{{
		"to": map[string]interface{}{"id": contactID},
		"types": []map[string]interface{}{{
			"associationCategory": "HUBSPOT_DEFINED",
			"associationTypeId":   typeID,
		}},
	}}
}

// CreateNote attaches a timeline note to an existing contact.
func (c *client) CreateNote(ctx context.Context, contactID, body string) (string, error) {
	if contactID == "" {
		return "", fmt.Errorf("hubspot: contact id required")
	}
	payload := map[string]interface{}{
		"properties": map[string]interface{}{
			"hs_note_body": body,
			"hs_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
		"associations": association(contactID, 202),
	}
	var created contactObject
	if err := c.do(ctx, "POST", "/crm/v3/objects/notes", payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// CreateDeal opens a deal associated with the contact.
func (c *client) CreateDeal(ctx context.Context, contactID, name string) (string, error) {
	if contactID == "" {
		return "", fmt.Errorf("hubspot: contact id required")
	}
	payload := map[string]interface{}{
		"properties": map[string]interface{}{
			"dealname":  name,
			"dealstage": "closedwon",
		},
		"associations": association(contactID, 3),
	}
	var created contactObject
	if err := c.do(ctx, "POST", "/crm/v3/objects/deals", payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "hubspot: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("hubspot http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, method, path string, body, out interface{}) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out != nil && len(raw) > 0 {
				if decodeErr := json.Unmarshal(raw, out); decodeErr != nil {
					return fmt.Errorf("hubspot decode: %w", decodeErr)
				}
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("HubSpot request retrying",
			"path", path,
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}

	return errors.New("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, method, path string, body interface{}) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
