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

type ABTestHandler struct {
	abTestService services.ABTestService
}

func NewABTestHandler(abTestService services.ABTestService) *ABTestHandler {
	return &ABTestHandler{abTestService: abTestService}
}

// Variant returns the sticky variant assignment for a visitor. Draft and
// completed tests always serve variant A.
func (th *ABTestHandler) Variant(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	slug := c.Param("slug")
	visitorID := c.Query("visitor_id")
	test, variant, err := th.abTestService.GetVariant(c.Request.Context(), siteID, slug, visitorID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	content := test.VariantAContent
	if variant == "B" {
		content = test.VariantBContent
	}
	RespondOK(c, gin.H{
		"test":    test.Slug,
		"variant": variant,
		"content": content,
	})
}

type abConvertRequest struct {
	VisitorID string  `json:"visitor_id" binding:"required"`
	Goal      string  `json:"goal"`
	Value     float64 `json:"value"`
}

func (th *ABTestHandler) Convert(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req abConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := th.abTestService.TrackConversion(c.Request.Context(), siteID, c.Param("slug"), req.VisitorID, req.Goal, req.Value); err != nil {
		RespondError(c, http.StatusBadRequest, "convert_failed", err)
		return
	}
	RespondAccepted(c, gin.H{"status": "recorded"})
}

type abTestCreateRequest struct {
	SiteID          uuid.UUID              `json:"site_id" binding:"required"`
	Name            string                 `json:"name" binding:"required"`
	Slug            string                 `json:"slug" binding:"required"`
	Description     string                 `json:"description"`
	TrafficSplit    int                    `json:"traffic_split"`
	VariantAContent map[string]interface{} `json:"variant_a_content"`
	VariantBContent map[string]interface{} `json:"variant_b_content"`
	GoalEvent       string                 `json:"goal_event"`
}

func (th *ABTestHandler) Create(c *gin.Context) {
	var req abTestCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	test := &types.ABTest{
		SiteID:       req.SiteID,
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		TrafficSplit: req.TrafficSplit,
		GoalEvent:    req.GoalEvent,
	}
	if req.VariantAContent != nil {
		raw, _ := json.Marshal(req.VariantAContent)
		test.VariantAContent = datatypes.JSON(raw)
	}
	if req.VariantBContent != nil {
		raw, _ := json.Marshal(req.VariantBContent)
		test.VariantBContent = datatypes.JSON(raw)
	}
	created, err := th.abTestService.CreateTest(c.Request.Context(), test)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, created)
}

func (th *ABTestHandler) List(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tests, err := th.abTestService.ListTests(c.Request.Context(), siteID, c.Query("status"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": tests})
}

func (th *ABTestHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	test, err := th.abTestService.GetTest(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, test)
}

type abStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (th *ABTestHandler) UpdateStatus(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req abStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	test, err := th.abTestService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, test)
}

func (th *ABTestHandler) Stats(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	stats, err := th.abTestService.RefreshStats(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "stats_failed", err)
		return
	}
	RespondOK(c, stats)
}
