package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/triedns/internal/api/models"
)

// GetConfig godoc
// @Summary Get current configuration
// @Description Returns the running configuration (api_key redacted)
// @Tags config
// @Produce json
// @Success 200 {object} models.ConfigResponse
// @Failure 500 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /config [get]
func (h *Handler) GetConfig(c *gin.Context) {
	if h.cfg == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "config unavailable"})
		return
	}

	resp := models.ConfigResponse{
		Server: models.ServerConfigResponse{
			Host:           h.cfg.Server.Host,
			Port:           h.cfg.Server.Port,
			Sockets:        h.cfg.Server.Sockets,
			Workers:        h.cfg.Server.Workers.String(),
			MaxConcurrency: h.cfg.Server.MaxConcurrency,
			HandlerTimeout: h.cfg.Server.HandlerTimeout,
		},
		Zone:      h.cfg.Zone,
		Upstream:  h.cfg.Upstream,
		Logging:   h.cfg.Logging,
		RateLimit: h.cfg.RateLimit,
		Access:    h.cfg.Access,
		API: models.APIConfigResponse{
			Enabled: h.cfg.API.Enabled,
			Host:    h.cfg.API.Host,
			Port:    h.cfg.API.Port,
		},
	}

	c.JSON(http.StatusOK, resp)
}
