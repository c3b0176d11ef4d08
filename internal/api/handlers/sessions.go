package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/config"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/middleware"
	"github.com/playpool/plinko/internal/ws"
)

// CreateSession opens a play session on a board and issues its token.
func CreateSession(m *game.Manager, players accounts.Players, reaper *game.IdleReaper, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID   int    `json:"player_id" binding:"required"`
			Board      string `json:"board"`
			ClientSeed string `json:"client_seed"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
			return
		}

		ctx := c.Request.Context()
		if _, err := players.Get(ctx, req.PlayerID); err != nil {
			respondError(c, err)
			return
		}
		s, err := m.CreateSession(req.PlayerID, req.Board, req.ClientSeed)
		if err != nil {
			respondError(c, err)
			return
		}

		ttl := time.Duration(cfg.SessionTimeoutMin) * time.Minute
		token, err := middleware.IssueSessionToken(cfg.JWTSecret, req.PlayerID, s.ID, ttl)
		if err != nil {
			log.Printf("[ENGINE] token for session %s failed: %v", s.ID, err)
			m.CloseSession(s.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session token"})
			return
		}
		reaper.Touch(ctx, s.ID)

		resp := gin.H{
			"session_id": s.ID,
			"token":      token,
			"board":      s.BoardName,
			"expires_in": int(ttl.Seconds()),
		}
		if hash := s.ServerSeedHash(); hash != "" {
			resp["server_seed_hash"] = hash
			resp["client_seed"] = s.ClientSeed()
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// DropBall admits one ball. The bet must be a positive whole number.
func DropBall(srv *ws.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BetAmount json.Number `json:"bet_amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bet_amount is required", "code": "InvalidBetAmount"})
			return
		}
		bet, err := ws.ParseBet(req.BetAmount)
		if err != nil {
			respondError(c, err)
			return
		}

		ballID, err := srv.Drop(c.Request.Context(), c.GetString(middleware.CtxSessionID), bet)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"ball_id": ballID, "bet_amount": bet})
	}
}

// FinishSession stops admissions. The session is removed once its balls land;
// until then closed is false and the client may call again.
func FinishSession(srv *ws.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(middleware.CtxSessionID)
		removed, err := srv.Finish(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := gin.H{"session_id": sessionID, "closed": removed}
		if !removed {
			if s, err := srv.Manager.GetSession(sessionID); err == nil {
				resp["in_flight"] = s.InFlight()
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetSnapshot returns the current render snapshot of a session.
func GetSnapshot(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.GetSession(c.GetString(middleware.CtxSessionID))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	}
}
