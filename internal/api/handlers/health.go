package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playpool/plinko/internal/game"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"service":         "plinko-api",
			"version":         version,
			"uptime":          time.Since(startTime).String(),
			"active_sessions": m.ActiveSessions(),
		})
	}
}
