package handlers

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

// APIError is the error body for every non-2xx response. Code is a stable
// machine-readable identifier (invalid_request, rate_limited, not_found,
// submit_failed, ...); Message is for humans and may change.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondAccepted is for fire-and-forget intake endpoints (tracking,
// conversions) where the work finishes on the job queue.
func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
