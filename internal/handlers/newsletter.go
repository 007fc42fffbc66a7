package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"net/http"
)

type NewsletterHandler struct {
	newsletterService services.NewsletterService
}

func NewNewsletterHandler(newsletterService services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletterService: newsletterService}
}

type newsletterSubscribeRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

func (nh *NewsletterHandler) Subscribe(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req newsletterSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	clientIP := ""
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		clientIP = rd.ClientIP
	}
	sub, created, err := nh.newsletterService.Subscribe(c.Request.Context(), siteID, req.Email, req.Name, req.Source, clientIP)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "subscribe_failed", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"id": sub.ID, "status": sub.Status})
}

func (nh *NewsletterHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errMissingToken)
		return
	}
	sub, err := nh.newsletterService.Confirm(c.Request.Context(), token)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "confirm_failed", err)
		return
	}
	RespondOK(c, gin.H{"id": sub.ID, "status": sub.Status})
}

func (nh *NewsletterHandler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errMissingToken)
		return
	}
	sub, err := nh.newsletterService.Unsubscribe(c.Request.Context(), token)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unsubscribe_failed", err)
		return
	}
	RespondOK(c, gin.H{"id": sub.ID, "status": sub.Status})
}

type newsletterBounceRequest struct {
	Email string `json:"email" binding:"required,email"`
	Type  string `json:"type" binding:"required"`
}

// Bounce receives delivery callbacks from the email provider. Type is
// "bounce" or "complaint".
func (nh *NewsletterHandler) Bounce(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req newsletterBounceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sub, err := nh.newsletterService.RecordDeliveryIssue(c.Request.Context(), siteID, req.Email, req.Type)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bounce_failed", err)
		return
	}
	RespondOK(c, gin.H{"id": sub.ID, "status": sub.Status})
}

func (nh *NewsletterHandler) List(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	items, total, err := nh.newsletterService.List(
		c.Request.Context(), siteID, c.Query("status"),
		intQuery(c, "limit", 50), intQuery(c, "offset", 0),
	)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items, "total": total})
}
