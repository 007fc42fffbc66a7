package handlers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"net/http"
	"strconv"
)

type ContactHandler struct {
	contactService services.ContactService
}

func NewContactHandler(contactService services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

type contactSubmitRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	Subject        string `json:"subject"`
	Message        string `json:"message" binding:"required"`
	FormType       string `json:"form_type"`
	SourceURL      string `json:"source_url"`
	Website        string `json:"website"`
	RecaptchaToken string `json:"recaptcha_token"`
	SessionID      string `json:"session_id"`
	VisitorID      string `json:"visitor_id"`
}

func (ch *ContactHandler) Submit(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req contactSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	input := services.ContactSubmitInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Subject:        req.Subject,
		Message:        req.Message,
		FormType:       req.FormType,
		SourceURL:      req.SourceURL,
		Honeypot:       req.Website,
		RecaptchaToken: req.RecaptchaToken,
		SessionID:      req.SessionID,
		VisitorID:      req.VisitorID,
	}
	if rd != nil {
		input.ClientIP = rd.ClientIP
		input.UserAgent = rd.UserAgent
		input.Referrer = rd.Referrer
	}

	sub, err := ch.contactService.Submit(c.Request.Context(), siteID, input)
	switch {
	case errors.Is(err, services.ErrRateLimited):
		RespondError(c, http.StatusTooManyRequests, "rate_limited", err)
		return
	case errors.Is(err, services.ErrHoneypot):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	case err != nil:
		RespondError(c, http.StatusBadRequest, "submit_failed", err)
		return
	}
	RespondCreated(c, gin.H{"id": sub.ID, "status": "received"})
}

func (ch *ContactHandler) List(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	filter := repos.ContactSubmissionFilter{
		Status:   c.Query("status"),
		FormType: c.Query("form_type"),
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
	}
	if raw := c.Query("is_spam"); raw != "" {
		spam := raw == "true" || raw == "1"
		filter.IsSpam = &spam
	}
	items, total, err := ch.contactService.List(c.Request.Context(), siteID, filter)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items, "total": total})
}

func (ch *ContactHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sub, err := ch.contactService.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, sub)
}

type contactStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AssignedTo string `json:"assigned_to"`
	Notes      string `json:"notes"`
}

func (ch *ContactHandler) UpdateStatus(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req contactStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sub, err := ch.contactService.UpdateStatus(c.Request.Context(), id, req.Status, req.AssignedTo, req.Notes)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, sub)
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
