package handlers

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
)

var (
	errMissingToken     = errors.New("token query parameter required")
	errMissingEmail     = errors.New("email query parameter required")
	errUnknownTrackType = errors.New("type must be pageview or event")
	errNoActivePolicy   = errors.New("no active privacy policy")
)

// siteIDFromContext returns the site resolved by the site middleware.
func siteIDFromContext(c *gin.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.SiteID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("site not resolved")
	}
	return rd.SiteID, nil
}

// siteIDFromQuery is for admin routes, which are not behind the site
// middleware and name the site explicitly.
func siteIDFromQuery(c *gin.Context) (uuid.UUID, error) {
	raw := c.Query("site_id")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("site_id query parameter required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid site_id")
	}
	return id, nil
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
