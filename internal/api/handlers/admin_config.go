package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/admin"
	"github.com/playpool/plinko/internal/config"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/middleware"
	"github.com/playpool/plinko/internal/models"
)

func adminPhone(c *gin.Context) string {
	if acc, ok := c.Get(middleware.CtxAdmin); ok {
		if a, ok := acc.(*models.AdminAccount); ok {
			return a.Phone
		}
	}
	return ""
}

// GetAdminRuntimeConfig returns all runtime config entries and the options
// the engine is currently running with.
func GetAdminRuntimeConfig(db *sqlx.DB, m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		configs, err := admin.GetAllRuntimeConfig(c.Request.Context(), db)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch runtime config: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch config"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"configs": configs, "engine": m.Options(), "active_sessions": m.ActiveSessions()})
	}
}

// UpdateAdminRuntimeConfig updates a single runtime config value and pushes
// the result to live sessions.
func UpdateAdminRuntimeConfig(db *sqlx.DB, cfg *config.Config, m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		phone := adminPhone(c)

		var req struct {
			Key   string `json:"key" binding:"required"`
			Value string `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "key and value are required"})
			return
		}
		details := map[string]interface{}{"key": req.Key, "value": req.Value}

		if err := admin.UpdateRuntimeConfigValue(ctx, db, req.Key, req.Value, phone); err != nil {
			log.Printf("[ADMIN] Failed to update config %s: %v", req.Key, err)
			admin.LogAdminAction(ctx, db, phone, c.ClientIP(), "/api/v1/admin/config", "update_config", details, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Re-apply runtime config to in-memory config and the engine
		if err := admin.ApplyRuntimeConfigToConfig(ctx, db, cfg); err != nil {
			log.Printf("[ADMIN] Warning: failed to apply runtime config: %v", err)
		}
		m.UpdateOptions(admin.EngineOptions(cfg))

		admin.LogAdminAction(ctx, db, phone, c.ClientIP(), "/api/v1/admin/config", "update_config", details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true, "engine": m.Options()})
	}
}
