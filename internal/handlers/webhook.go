package handlers

import (
	"encoding/json"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/datatypes"
	"net/http"
)

type WebhookHandler struct {
	webhookService services.WebhookService
}

func NewWebhookHandler(webhookService services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

type webhookCreateRequest struct {
	SiteID     uuid.UUID `json:"site_id" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	URL        string    `json:"url" binding:"required,url"`
	Events     []string  `json:"events"`
	MaxRetries int       `json:"max_retries"`
}

func (wh *WebhookHandler) Create(c *gin.Context) {
	var req webhookCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cfg := &types.WebhookConfig{
		SiteID:     req.SiteID,
		Name:       req.Name,
		URL:        req.URL,
		MaxRetries: req.MaxRetries,
	}
	if len(req.Events) > 0 {
		raw, _ := json.Marshal(req.Events)
		cfg.Events = datatypes.JSON(raw)
	}
	created, err := wh.webhookService.CreateConfig(c.Request.Context(), cfg)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	// The secret is returned once, on creation only.
	RespondCreated(c, gin.H{"config": created, "secret": created.Secret})
}

func (wh *WebhookHandler) List(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	items, err := wh.webhookService.ListConfigs(c.Request.Context(), siteID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

type webhookUpdateRequest struct {
	Name       *string  `json:"name"`
	URL        *string  `json:"url"`
	Events     []string `json:"events"`
	IsActive   *bool    `json:"is_active"`
	MaxRetries *int     `json:"max_retries"`
}

func (wh *WebhookHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req webhookUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.MaxRetries != nil {
		updates["max_retries"] = *req.MaxRetries
	}
	if len(req.Events) > 0 {
		raw, _ := json.Marshal(req.Events)
		updates["events"] = datatypes.JSON(raw)
	}
	cfg, err := wh.webhookService.UpdateConfig(c.Request.Context(), id, updates)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, cfg)
}

func (wh *WebhookHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := wh.webhookService.DeleteConfig(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondNoContent(c)
}

func (wh *WebhookHandler) Redeliver(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ev, err := wh.webhookService.Redeliver(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "redeliver_failed", err)
		return
	}
	RespondAccepted(c, gin.H{"id": ev.ID, "status": ev.Status})
}

func (wh *WebhookHandler) Events(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	items, total, err := wh.webhookService.ListEvents(
		c.Request.Context(), id, c.Query("status"),
		intQuery(c, "limit", 50), intQuery(c, "offset", 0),
	)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items, "total": total})
}
