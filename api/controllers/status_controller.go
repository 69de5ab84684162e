package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/localsend-uploader/api/models"
	"github.com/moyoez/localsend-uploader/tool"
)

// UserStatus returns server status for the web UI.
// GET /api/self/v1/status
func UserStatus(notifyWSEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := tool.GetCurrentConfig()
		c.JSON(http.StatusOK, gin.H{
			"running":           true,
			"notify_ws_enabled": notifyWSEnabled,
			"running_batches":   models.RunningBatches(),
			"concurrency":       cfg.Concurrency,
			"max_attempts":      cfg.MaxAttempts,
		})
	}
}
