package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubContactService struct {
	submitErr error
	lastInput services.ContactSubmitInput
}

func (s *stubContactService) Submit(ctx context.Context, siteID uuid.UUID, input services.ContactSubmitInput) (*types.ContactSubmission, error) {
	s.lastInput = input
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &types.ContactSubmission{ID: uuid.New(), SiteID: siteID, Status: "new"}, nil
}

func (s *stubContactService) Get(ctx context.Context, id uuid.UUID) (*types.ContactSubmission, error) {
	return nil, nil
}

func (s *stubContactService) List(ctx context.Context, siteID uuid.UUID, filter repos.ContactSubmissionFilter) ([]*types.ContactSubmission, int64, error) {
	return nil, 0, nil
}

func (s *stubContactService) UpdateStatus(ctx context.Context, id uuid.UUID, status, assignedTo, notes string) (*types.ContactSubmission, error) {
	return nil, nil
}

var _ services.ContactService = (*stubContactService)(nil)

func submitContact(svc services.ContactService, payload map[string]string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	h := NewContactHandler(svc)
	router := gin.New()
	siteID := uuid.New()
	router.POST("/contact", func(c *gin.Context) {
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			SiteID:   siteID,
			ClientIP: "203.0.113.9",
		})
		c.Request = c.Request.WithContext(ctx)
		h.Submit(c)
	})

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/contact", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return envelope.Error
}

var validSubmitPayload = map[string]string{
	"name":    "Jane Doe",
	"email":   "jane@acme.com",
	"message": "I would like to hear more about your product.",
}

func TestContactSubmitSuccess(t *testing.T) {
	w := submitContact(&stubContactService{}, validSubmitPayload)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestContactSubmitRateLimited(t *testing.T) {
	w := submitContact(&stubContactService{submitErr: services.ErrRateLimited}, validSubmitPayload)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if apiErr := decodeError(t, w); apiErr.Code != "rate_limited" {
		t.Fatalf("error code = %q, want %q", apiErr.Code, "rate_limited")
	}
}

func TestContactSubmitHoneypot(t *testing.T) {
	w := submitContact(&stubContactService{submitErr: services.ErrHoneypot}, validSubmitPayload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, w); apiErr.Code != "invalid_request" {
		t.Fatalf("error code = %q, want %q", apiErr.Code, "invalid_request")
	}
}

func TestContactSubmitForwardsHoneypotField(t *testing.T) {
	svc := &stubContactService{}
	payload := map[string]string{
		"name":    "Jane Doe",
		"email":   "jane@acme.com",
		"message": "I would like to hear more about your product.",
		"website": "http://spam.example",
	}
	submitContact(svc, payload)
	if svc.lastInput.Honeypot != "http://spam.example" {
		t.Fatalf("honeypot field not forwarded, got %q", svc.lastInput.Honeypot)
	}
	if svc.lastInput.ClientIP != "203.0.113.9" {
		t.Fatalf("client ip not forwarded, got %q", svc.lastInput.ClientIP)
	}
}
