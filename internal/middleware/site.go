package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
	"net/http"
)

type SiteMiddleware struct {
	log         *logger.Logger
	siteService services.SiteService
}

func NewSiteMiddleware(log *logger.Logger, siteService services.SiteService) *SiteMiddleware {
	middlewareLogger := log.With("Middleware", "SiteMiddleware")
	return &SiteMiddleware{log: middlewareLogger, siteService: siteService}
}

// ResolveSite attaches the owning site to the request context. Public
// endpoints identify the site by the X-Site-ID header or ?site= query param,
// falling back to Origin, Referer, Host, then the default site.
func (sm *SiteMiddleware) ResolveSite() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.GetHeader("X-Site-ID")
		if identifier == "" {
			identifier = c.Query("site")
		}
		site, err := sm.siteService.Resolve(
			c.Request.Context(),
			identifier,
			c.GetHeader("Origin"),
			c.GetHeader("Referer"),
			c.Request.Host,
		)
		if err != nil {
			sm.log.Warn("Site resolution failed", "identifier", identifier, "host", c.Request.Host, "error", err)
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "site not found"})
			return
		}

		ctx := c.Request.Context()
		rd := requestdata.GetRequestData(ctx)
		if rd == nil {
			rd = &requestdata.RequestData{}
			ctx = requestdata.WithRequestData(ctx, rd)
		}
		rd.SiteID = site.ID
		rd.ClientIP = utils.ClientIP(c)
		rd.UserAgent = c.Request.UserAgent()
		rd.Referrer = c.GetHeader("Referer")
		c.Request = c.Request.WithContext(ctx)
		c.Set("site", site)
		c.Next()
	}
}
