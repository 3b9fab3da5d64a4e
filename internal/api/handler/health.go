package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/insightflow/insightflow/consts"
)

// Health reports liveness and build information
// GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        consts.ServiceName,
		"version":        consts.Version,
		"uptime_seconds": int64(consts.GetUptime().Seconds()),
	})
}
