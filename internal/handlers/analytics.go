package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"net/http"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

type trackRequest struct {
	Type       string                 `json:"type" binding:"required"`
	SessionID  string                 `json:"session_id" binding:"required"`
	VisitorID  string                 `json:"visitor_id"`
	URL        string                 `json:"url"`
	Path       string                 `json:"path"`
	Title      string                 `json:"title"`
	Referrer   string                 `json:"referrer"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	Label      string                 `json:"label"`
	Value      float64                `json:"value"`
	Properties map[string]interface{} `json:"properties"`
}

// Track is the single beacon endpoint the site snippet posts to. The type
// field selects between a page view and a named event.
func (ah *AnalyticsHandler) Track(c *gin.Context) {
	siteID, err := siteIDFromContext(c)
	if err != nil {
		RespondError(c, http.StatusNotFound, "site_not_found", err)
		return
	}
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	clientIP, userAgent, referrer := "", "", ""
	if rd != nil {
		clientIP, userAgent, referrer = rd.ClientIP, rd.UserAgent, rd.Referrer
	}
	if req.Referrer != "" {
		referrer = req.Referrer
	}

	switch req.Type {
	case "pageview":
		err = ah.analyticsService.TrackPageView(c.Request.Context(), siteID, services.PageViewInput{
			SessionID: req.SessionID,
			VisitorID: req.VisitorID,
			URL:       req.URL,
			Path:      req.Path,
			Title:     req.Title,
			Referrer:  referrer,
			UserAgent: userAgent,
			ClientIP:  clientIP,
		})
	case "event":
		err = ah.analyticsService.TrackEvent(c.Request.Context(), siteID, services.EventInput{
			SessionID:  req.SessionID,
			VisitorID:  req.VisitorID,
			Name:       req.Name,
			Category:   req.Category,
			Label:      req.Label,
			Value:      req.Value,
			Path:       req.Path,
			Properties: req.Properties,
		})
	default:
		RespondError(c, http.StatusBadRequest, "invalid_request", errUnknownTrackType)
		return
	}
	if err != nil {
		RespondError(c, http.StatusBadRequest, "track_failed", err)
		return
	}
	RespondAccepted(c, gin.H{"status": "tracked"})
}
