package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/remote"
)

// respondError maps service failures onto HTTP statuses. Remote-gateway
// rejections surface as 502 so clients can distinguish a broken backend
// from a broken request.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "remote backend not configured"})
	case errors.Is(err, domain.ErrLocalPersistence):
		logger.Error("Local persistence failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "local persistence unavailable"})
	default:
		if ge, ok := remote.AsGatewayError(err); ok {
			logger.Error("Remote gateway failure",
				slog.Int("status", ge.Status),
				slog.String("kind", ge.Class.Kind.String()),
			)
			c.JSON(http.StatusBadGateway, gin.H{"error": "remote backend rejected the request"})
			return
		}
		logger.Error("Unhandled service error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// synced wraps a payload with the dual-write provenance tag.
func synced(result domain.SyncResult, payload gin.H) gin.H {
	payload["outcome"] = result.Outcome
	if result.Detail != "" {
		payload["detail"] = result.Detail
	}
	return payload
}
