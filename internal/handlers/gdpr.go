package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"net/http"
	"time"
)

type GDPRHandler struct {
	gdprService services.GDPRService
}

func NewGDPRHandler(gdprService services.GDPRService) *GDPRHandler {
	return &GDPRHandler{gdprService: gdprService}
}

type consentRequest struct {
	Email       string `json:"email" binding:"required,email"`
	ConsentType string `json:"consent_type" binding:"required"`
	Granted     bool   `json:"granted"`
}

func (gh *GDPRHandler) RecordConsent(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.ConsentInput{
		Email:       req.Email,
		ConsentType: req.ConsentType,
		Granted:     req.Granted,
	}
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		input.ClientIP = rd.ClientIP
		input.UserAgent = rd.UserAgent
	}
	record, err := gh.gdprService.RecordConsent(c.Request.Context(), siteID, input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "consent_failed", err)
		return
	}
	RespondCreated(c, gin.H{"id": record.ID, "consent_type": record.ConsentType, "granted": record.Granted})
}

func (gh *GDPRHandler) ConsentStatus(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	email := c.Query("email")
	if email == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errMissingEmail)
		return
	}
	statuses, err := gh.gdprService.GetConsentStatus(c.Request.Context(), siteID, email)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "consent_status_failed", err)
		return
	}
	RespondOK(c, gin.H{"email": email, "consents": statuses})
}

func (gh *GDPRHandler) ActivePolicy(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	policy, err := gh.gdprService.GetActivePolicy(c.Request.Context(), siteID)
	if err != nil || policy == nil {
		RespondError(c, http.StatusNotFound, "not_found", errNoActivePolicy)
		return
	}
	RespondOK(c, policy)
}

type exportRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (gh *GDPRHandler) Export(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	export, err := gh.gdprService.ExportData(c.Request.Context(), siteID, req.Email)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	RespondOK(c, export)
}

type deleteRequest struct {
	Email       string `json:"email" binding:"required,email"`
	RequestType string `json:"request_type" binding:"required"`
}

func (gh *GDPRHandler) Delete(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	requestedBy := ""
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		requestedBy = rd.AdminID.String()
	}
	result, err := gh.gdprService.DeleteData(c.Request.Context(), siteID, req.Email, req.RequestType, requestedBy)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, result)
}

type policyCreateRequest struct {
	Version       string     `json:"version" binding:"required"`
	Content       string     `json:"content" binding:"required"`
	EffectiveDate *time.Time `json:"effective_date"`
	Activate      bool       `json:"activate"`
}

func (gh *GDPRHandler) CreatePolicy(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req policyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	effective := time.Time{}
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}
	policy, err := gh.gdprService.CreatePolicy(c.Request.Context(), siteID, req.Version, req.Content, effective, req.Activate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, policy)
}

func (gh *GDPRHandler) ListPolicies(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	policies, err := gh.gdprService.ListPolicies(c.Request.Context(), siteID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": policies})
}

func (gh *GDPRHandler) ActivatePolicy(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	policyID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := gh.gdprService.ActivatePolicy(c.Request.Context(), siteID, policyID); err != nil {
		RespondError(c, http.StatusBadRequest, "activate_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "activated"})
}

type retentionRequest struct {
	DataType      string `json:"data_type" binding:"required"`
	RetentionDays int    `json:"retention_days" binding:"required"`
	IsActive      bool   `json:"is_active"`
}

func (gh *GDPRHandler) SetRetentionPolicy(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req retentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	policy, err := gh.gdprService.SetRetentionPolicy(c.Request.Context(), siteID, services.RetentionPolicyInput{
		DataType:      req.DataType,
		RetentionDays: req.RetentionDays,
		IsActive:      req.IsActive,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "retention_failed", err)
		return
	}
	RespondOK(c, policy)
}

func (gh *GDPRHandler) ListAuditLogs(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	items, total, err := gh.gdprService.ListAuditLogs(c.Request.Context(), siteID, intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items, "total": total})
}
