package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"net/http"
)

type LeadHandler struct {
	leadService services.LeadService
}

func NewLeadHandler(leadService services.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

type leadCaptureRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	JobTitle    string `json:"job_title"`
	Industry    string `json:"industry"`
	Source      string `json:"source"`
	Medium      string `json:"medium"`
	Campaign    string `json:"campaign"`
	LandingPage string `json:"landing_page"`
}

func (lh *LeadHandler) Capture(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req leadCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lead, created, err := lh.leadService.Capture(c.Request.Context(), siteID, services.LeadCaptureInput{
		Email:       req.Email,
		Name:        req.Name,
		Phone:       req.Phone,
		Company:     req.Company,
		JobTitle:    req.JobTitle,
		Industry:    req.Industry,
		Source:      req.Source,
		Medium:      req.Medium,
		Campaign:    req.Campaign,
		LandingPage: req.LandingPage,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "capture_failed", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"id": lead.ID, "score": lead.Score, "status": lead.Status})
}

func (lh *LeadHandler) List(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	filter := repos.LeadFilter{
		Status:   c.Query("status"),
		Source:   c.Query("source"),
		MinScore: intQuery(c, "min_score", 0),
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
	}
	items, total, err := lh.leadService.List(c.Request.Context(), siteID, filter)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items, "total": total})
}

func (lh *LeadHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lead, err := lh.leadService.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, lead)
}

type leadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (lh *LeadHandler) UpdateStatus(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req leadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lead, err := lh.leadService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, lead)
}
