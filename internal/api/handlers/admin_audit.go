package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/admin"
)

// GetAdminAuditLogs returns paginated audit log entries
func GetAdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 200 {
			limit = 200
		}
		if offset < 0 {
			offset = 0
		}

		logs, err := admin.GetAdminAuditLogs(c.Request.Context(), db, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
	}
}
