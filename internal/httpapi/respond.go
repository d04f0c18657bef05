package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mycally/internal/apierr"
)

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

// fail maps err to a JSON error. Anything that is not an *apierr.Error is a 500
// and is logged with the request id.
func (s *Server) fail(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		respondError(c, ae.Status, ae.Code, ae.Error())
		return
	}
	if errors.Is(err, context.Canceled) {
		c.Abort()
		return
	}
	s.log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, "internal", err.Error())
}

func unavailable(c *gin.Context, what string) {
	respondError(c, http.StatusServiceUnavailable, "unavailable", what+" is not configured")
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, http.StatusBadRequest, "invalid_request", msg)
}
