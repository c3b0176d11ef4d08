package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/admin"
)

// CreditPlayer grants credits to a player from the house account.
func CreditPlayer(db *sqlx.DB, players accounts.Players, ledger accounts.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		phone := adminPhone(c)
		playerID, ok := playerIDParam(c)
		if !ok {
			return
		}

		var req struct {
			Amount    int64  `json:"amount" binding:"required"`
			Reference string `json:"reference"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive integer"})
			return
		}
		if req.Reference == "" {
			req.Reference = fmt.Sprintf("admin:%s:%d", phone, time.Now().UnixNano())
		}
		details := map[string]interface{}{"player_id": playerID, "amount": req.Amount, "reference": req.Reference}
		route := "/api/v1/admin/players/" + c.Param("id") + "/credit"

		if _, err := players.Get(ctx, playerID); err != nil {
			respondError(c, err)
			return
		}
		if err := ledger.Grant(ctx, playerID, req.Amount, req.Reference); err != nil {
			log.Printf("[ADMIN] credit player %d failed: %v", playerID, err)
			admin.LogAdminAction(ctx, db, phone, c.ClientIP(), route, "credit_player", details, false)
			respondError(c, err)
			return
		}
		balance, _ := ledger.Balance(ctx, playerID)

		log.Printf("[ADMIN] %s credited player %d with %d (ref=%s)", phone, playerID, req.Amount, req.Reference)
		admin.LogAdminAction(ctx, db, phone, c.ClientIP(), route, "credit_player", details, true)
		c.JSON(http.StatusOK, gin.H{"player_id": playerID, "balance": balance, "reference": req.Reference})
	}
}
