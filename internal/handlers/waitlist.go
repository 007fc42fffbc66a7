package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"net/http"
)

type WaitlistHandler struct {
	waitlistService services.WaitlistService
}

func NewWaitlistHandler(waitlistService services.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlistService: waitlistService}
}

type waitlistJoinRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Name           string `json:"name"`
	Company        string `json:"company"`
	Role           string `json:"role"`
	CompanySize    string `json:"company_size"`
	Industry       string `json:"industry"`
	UseCase        string `json:"use_case"`
	ReferralSource string `json:"referral_source"`
	ReferralCode   string `json:"referral_code"`
}

func (wh *WaitlistHandler) Join(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req waitlistJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	input := services.WaitlistJoinInput{
		Email:          req.Email,
		Name:           req.Name,
		Company:        req.Company,
		Role:           req.Role,
		CompanySize:    req.CompanySize,
		Industry:       req.Industry,
		UseCase:        req.UseCase,
		ReferralSource: req.ReferralSource,
		ReferralCode:   req.ReferralCode,
	}
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		input.ClientIP = rd.ClientIP
	}

	result, err := wh.waitlistService.Join(c.Request.Context(), siteID, input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "join_failed", err)
		return
	}
	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"id":            result.Entry.ID,
		"position":      result.Position,
		"referral_code": result.Entry.ReferralCode,
		"status":        result.Entry.Status,
	})
}

func (wh *WaitlistHandler) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errMissingToken)
		return
	}
	entry, err := wh.waitlistService.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "verify_failed", err)
		return
	}
	RespondOK(c, gin.H{"id": entry.ID, "email_verified": entry.EmailVerified})
}

func (wh *WaitlistHandler) Position(c *gin.Context) {
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
	entry, position, err := wh.waitlistService.Position(c.Request.Context(), siteID, email)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{
		"position":       position,
		"status":         entry.Status,
		"referral_code":  entry.ReferralCode,
		"referral_count": entry.ReferralCount,
	})
}

func (wh *WaitlistHandler) List(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	filter := repos.WaitlistFilter{
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	items, total, err := wh.waitlistService.List(c.Request.Context(), siteID, filter)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items, "total": total})
}

type waitlistStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (wh *WaitlistHandler) UpdateStatus(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req waitlistStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	entry, err := wh.waitlistService.UpdateStatus(c.Request.Context(), id, req.Status, req.Notes)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, entry)
}

func (wh *WaitlistHandler) Invite(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	entry, err := wh.waitlistService.Invite(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invite_failed", err)
		return
	}
	RespondOK(c, entry)
}
