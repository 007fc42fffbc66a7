package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"net/http"
)

type SiteHandler struct {
	siteService services.SiteService
}

func NewSiteHandler(siteService services.SiteService) *SiteHandler {
	return &SiteHandler{siteService: siteService}
}

type siteCreateRequest struct {
	Name      string `json:"name" binding:"required"`
	Domain    string `json:"domain" binding:"required"`
	Slug      string `json:"slug"`
	IsDefault bool   `json:"is_default"`
}

func (sh *SiteHandler) Create(c *gin.Context) {
	var req siteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	site, err := sh.siteService.Create(c.Request.Context(), &types.Site{
		Name:      req.Name,
		Domain:    req.Domain,
		Slug:      req.Slug,
		IsDefault: req.IsDefault,
		IsActive:  true,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondCreated(c, site)
}

func (sh *SiteHandler) List(c *gin.Context) {
	sites, err := sh.siteService.ListActive(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": sites})
}

func (sh *SiteHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	site, err := sh.siteService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, site)
}

func (sh *SiteHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	site, err := sh.siteService.Update(c.Request.Context(), id, updates)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, site)
}

func (sh *SiteHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := sh.siteService.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondNoContent(c)
}
