package salesforce

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
	"sync"
	"time"

	"github.com/vjbollavarapu/sitebackend/internal/httpx"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
)

type Client interface {
	CreateLead(ctx context.Context, lead Lead) (string, error)
	CreateNote(ctx context.Context, parentID, title, body string) (string, error)
	CreateOpportunity(ctx context.Context, name string) (string, error)
}

type Lead struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Company   string
	Title     string
	Industry  string
	Source    string
}

type Config struct {
	LoginURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	APIVersion   string
	Timeout      time.Duration
	MaxRetries   int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		LoginURL:     utils.GetEnv("SALESFORCE_LOGIN_URL", "https://login.salesforce.com", log),
		ClientID:     strings.TrimSpace(os.Getenv("SALESFORCE_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("SALESFORCE_CLIENT_SECRET")),
		Username:     strings.TrimSpace(os.Getenv("SALESFORCE_USERNAME")),
		Password:     strings.TrimSpace(os.Getenv("SALESFORCE_PASSWORD")),
		APIVersion:   utils.GetEnv("SALESFORCE_API_VERSION", "v57.0", log),
		Timeout:      time.Duration(utils.GetEnvAsInt("SALESFORCE_TIMEOUT_SECONDS", 30, log)) * time.Second,
		MaxRetries:   utils.GetEnvAsInt("SALESFORCE_MAX_RETRIES", 3, log),
	}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("missing salesforce credentials")
	}
	cfg.LoginURL = strings.TrimRight(strings.TrimSpace(cfg.LoginURL), "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v57.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &client{
		log:        log.With("client", "SalesforceClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	instanceURL string
	tokenExpiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	TokenType   string `json:"token_type"`
}

type createResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// authenticate runs the username/password OAuth flow. Tokens are cached for
// 30 minutes; Salesforce sessions typically outlive that.
func (c *client) authenticate(ctx context.Context) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, c.instanceURL, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.LoginURL+"/services/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("salesforce auth http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", "", fmt.Errorf("salesforce auth decode: %w", err)
	}
	if tok.AccessToken == "" || tok.InstanceURL == "" {
		return "", "", fmt.Errorf("salesforce auth: empty token or instance url")
	}

	c.accessToken = tok.AccessToken
	c.instanceURL = strings.TrimRight(tok.InstanceURL, "/")
	c.tokenExpiry = time.Now().Add(30 * time.Minute)
	return c.accessToken, c.instanceURL, nil
}

func (c *client) CreateLead(ctx context.Context, lead Lead) (string, error) {
	if strings.TrimSpace(lead.Email) == "" {
		return "", fmt.Errorf("salesforce: email required")
	}
	// Salesforce requires LastName and Company on Lead.
	lastName := strings.TrimSpace(lead.LastName)
	if lastName == "" {
		lastName = "Unknown"
	}
	company := strings.TrimSpace(lead.Company)
	if company == "" {
		company = "Unknown"
	}

	body := map[string]interface{}{
		"Email":    strings.TrimSpace(strings.ToLower(lead.Email)),
		"LastName": lastName,
		"Company":  company,
	}
	if lead.FirstName != "" {
		body["FirstName"] = lead.FirstName
	}
	if lead.Phone != "" {
		body["Phone"] = lead.Phone
	}
	if lead.Title != "" {
		body["Title"] = lead.Title
	}
	if lead.Industry != "" {
		body["Industry"] = lead.Industry
	}
	if lead.Source != "" {
		body["LeadSource"] = lead.Source
	}
	return c.createObject(ctx, "Lead", body)
}

// CreateNote attaches a classic Note record to a lead or contact.
func (c *client) CreateNote(ctx context.Context, parentID, title, noteBody string) (string, error) {
	if strings.TrimSpace(parentID) == "" {
		return "", fmt.Errorf("salesforce: parent id required")
	}
	if strings.TrimSpace(title) == "" {
		title = "Note"
	}
	return c.createObject(ctx, "Note", map[string]interface{}{
		"ParentId": parentID,
		"Title":    title,
		"Body":     noteBody,
	})
}

func (c *client) CreateOpportunity(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("salesforce: opportunity name required")
	}
	return c.createObject(ctx, "Opportunity", map[string]interface{}{
		"Name":      name,
		"StageName": "Closed Won",
		"CloseDate": time.Now().UTC().Format("2006-01-02"),
	})
}

func (c *client) createObject(ctx context.Context, sobject string, body map[string]interface{}) (string, error) {
	var created createResponse
	err := httpx.DoWithRetry(ctx, c.cfg.MaxRetries, time.Second, func() (*http.Response, error) {
		token, instanceURL, authErr := c.authenticate(ctx)
		if authErr != nil {
			return nil, authErr
		}

		var buf bytes.Buffer
		if encErr := json.NewEncoder(&buf).Encode(body); encErr != nil {
			return nil, encErr
		}
		req, reqErr := http.NewRequestWithContext(ctx, "POST",
			instanceURL+"/services/data/"+c.cfg.APIVersion+"/sobjects/"+sobject, &buf)
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return resp, readErr
		}

		if resp.StatusCode == http.StatusUnauthorized {
			// Session expired server-side; drop the cached token.
			c.mu.Lock()
			c.accessToken = ""
			c.mu.Unlock()
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var errs []apiError
			msg := strings.TrimSpace(string(raw))
			if json.Unmarshal(raw, &errs) == nil && len(errs) > 0 {
				msg = errs[0].ErrorCode + ": " + errs[0].Message
			}
			return resp, &HTTPError{StatusCode: resp.StatusCode, Body: msg}
		}
		if decodeErr := json.Unmarshal(raw, &created); decodeErr != nil {
			return resp, fmt.Errorf("salesforce decode: %w", decodeErr)
		}
		return resp, nil
	})
	if err != nil {
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
		return "salesforce: <nil error>"
	}
	return fmt.Sprintf("salesforce http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
