package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/config"
)

// CreatePlayer registers a player and opens their balance account.
func CreatePlayer(players accounts.Players, ledger accounts.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DisplayName string `json:"display_name"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		ctx := c.Request.Context()
		player, err := players.Create(ctx, req.DisplayName)
		if err != nil {
			log.Printf("[ACCT] create player failed: %v", err)
			respondError(c, err)
			return
		}
		balance, err := ledger.Balance(ctx, player.ID)
		if err != nil {
			log.Printf("[ACCT] balance for new player %d failed: %v", player.ID, err)
		}
		c.JSON(http.StatusCreated, gin.H{"player": player, "balance": balance})
	}
}

// GetPlayerBalance returns the player's current balance.
func GetPlayerBalance(players accounts.Players, ledger accounts.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := playerIDParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := players.Get(ctx, playerID); err != nil {
			respondError(c, err)
			return
		}
		balance, err := ledger.Balance(ctx, playerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"player_id": playerID, "balance": balance})
	}
}

// GetPlayerHistory returns the player's most recent settled drops and totals.
func GetPlayerHistory(players accounts.Players, history accounts.History, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := playerIDParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := players.Get(ctx, playerID); err != nil {
			respondError(c, err)
			return
		}
		drops, err := history.ListDrops(ctx, playerID, cfg.HistoryLimit)
		if err != nil {
			log.Printf("[ACCT] list drops for player %d failed: %v", playerID, err)
			respondError(c, err)
			return
		}
		count, wagered, winnings, err := history.Totals(ctx, playerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"player_id":      playerID,
			"drops":          drops,
			"total_drops":    count,
			"total_wagered":  wagered,
			"total_winnings": winnings,
		})
	}
}
