package handlers

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubWebhookService struct {
	redeliverErr error
	redelivered  uuid.UUID
}

func (s *stubWebhookService) Dispatch(ctx context.Context, siteID uuid.UUID, eventType string, payload map[string]interface{}) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *stubWebhookService) Deliver(ctx context.Context, eventID uuid.UUID) error {
	return nil
}

func (s *stubWebhookService) Redeliver(ctx context.Context, eventID uuid.UUID) (*types.WebhookEvent, error) {
	s.redelivered = eventID
	if s.redeliverErr != nil {
		return nil, s.redeliverErr
	}
	return &types.WebhookEvent{ID: eventID, Status: "pending"}, nil
}

func (s *stubWebhookService) RetrySweep(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *stubWebhookService) Sign(secret string, payload []byte) string {
	return ""
}

func (s *stubWebhookService) CreateConfig(ctx context.Context, cfg *types.WebhookConfig) (*types.WebhookConfig, error) {
	return cfg, nil
}

func (s *stubWebhookService) UpdateConfig(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.WebhookConfig, error) {
	return nil, nil
}

func (s *stubWebhookService) DeleteConfig(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubWebhookService) ListConfigs(ctx context.Context, siteID uuid.UUID) ([]*types.WebhookConfig, error) {
	return nil, nil
}

func (s *stubWebhookService) ListEvents(ctx context.Context, configID uuid.UUID, status string, limit, offset int) ([]*types.WebhookEvent, int64, error) {
	return nil, 0, nil
}

var _ services.WebhookService = (*stubWebhookService)(nil)

func postRedeliver(svc services.WebhookService, id string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(svc)
	router := gin.New()
	router.POST("/webhook-events/:id/redeliver", h.Redeliver)

	req := httptest.NewRequest("POST", "/webhook-events/"+id+"/redeliver", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookRedeliverAccepted(t *testing.T) {
	svc := &stubWebhookService{}
	id := uuid.New()
	w := postRedeliver(svc, id.String())
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, http.StatusAccepted, w.Body.String())
	}
	if svc.redelivered != id {
		t.Fatalf("redelivered id = %s, want %s", svc.redelivered, id)
	}
}

func TestWebhookRedeliverUnknownEvent(t *testing.T) {
	svc := &stubWebhookService{redeliverErr: errors.New("webhook event not found")}
	w := postRedeliver(svc, uuid.New().String())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, w); apiErr.Code != "redeliver_failed" {
		t.Fatalf("error code = %q, want %q", apiErr.Code, "redeliver_failed")
	}
}

func TestWebhookRedeliverBadID(t *testing.T) {
	w := postRedeliver(&stubWebhookService{}, "not-a-uuid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
