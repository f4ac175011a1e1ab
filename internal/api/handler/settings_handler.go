package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crewops/opsync/internal/api/dto"
)

// GetRemoteSettings handles GET /api/v1/settings/remote
// The credential is masked; only enough is returned to recognize it.
func (h *SettingsHandler) GetRemoteSettings(c *gin.Context) {
	endpoint, credential, configured := h.settings.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"configured": configured,
		"endpoint":   endpoint,
		"credential": maskCredential(credential),
		"bucket":     h.settings.Bucket(),
	})
}

// UpdateRemoteSettings handles PUT /api/v1/settings/remote
// Attaches or detaches the remote backend at runtime. Settings live in
// process memory; the config file seeds them on the next start.
func (h *SettingsHandler) UpdateRemoteSettings(c *gin.Context) {
	var req dto.UpdateRemoteSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	endpoint := strings.TrimSpace(req.Endpoint)
	credential := strings.TrimSpace(req.Credential)
	if (endpoint == "") != (credential == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint and credential must be set together"})
		return
	}

	h.settings.Set(endpoint, credential)

	if endpoint == "" {
		h.logger.Info("Remote backend detached")
	} else {
		h.logger.Info("Remote backend attached", slog.String("endpoint", endpoint))
	}

	c.JSON(http.StatusOK, gin.H{"configured": h.settings.Configured()})
}

// maskCredential keeps the first and last four characters.
func maskCredential(credential string) string {
	if credential == "" {
		return ""
	}
	if len(credential) <= 8 {
		return "********"
	}
	return credential[:4] + "..." + credential[len(credential)-4:]
}
