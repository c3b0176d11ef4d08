package api

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/admin"
	"github.com/playpool/plinko/internal/api/handlers"
	"github.com/playpool/plinko/internal/config"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/middleware"
	"github.com/playpool/plinko/internal/models"
	"github.com/playpool/plinko/internal/ws"
)

// Deps are the collaborators the HTTP API is wired to. DB is nil when the
// server runs with the in-memory wallet; admin routes are not mounted then.
type Deps struct {
	DB      *sqlx.DB
	Manager *game.Manager
	Players accounts.Players
	Ledger  accounts.Ledger
	History accounts.History
	Reaper  *game.IdleReaper
	WS      *ws.Server
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Manager))
		v1.GET("/boards", handlers.ListBoards(d.Manager))

		v1.POST("/players", handlers.CreatePlayer(d.Players, d.Ledger))
		player := v1.Group("/player")
		{
			player.GET("/:id/balance", handlers.GetPlayerBalance(d.Players, d.Ledger))
			player.GET("/:id/history", handlers.GetPlayerHistory(d.Players, d.History, cfg))
		}

		v1.POST("/sessions", handlers.CreateSession(d.Manager, d.Players, d.Reaper, cfg))
		sessions := v1.Group("/sessions/:id", middleware.SessionAuth(cfg.JWTSecret))
		{
			sessions.POST("/drop", handlers.DropBall(d.WS))
			sessions.POST("/finish", handlers.FinishSession(d.WS))
			sessions.GET("/snapshot", handlers.GetSnapshot(d.Manager))
			sessions.GET("/ws", middleware.WebSocketCORSCheck(cfg), d.WS.HandleWebSocket())
		}

		if d.DB == nil {
			log.Println("[ADMIN] No database configured; admin routes disabled")
			return
		}
		validate := func(ctx context.Context, phone, token, ip string) (*models.AdminAccount, error) {
			return admin.ValidateAdmin(ctx, d.DB, phone, token, ip)
		}
		adminGroup := v1.Group("/admin", middleware.AdminAuth(validate))
		{
			adminGroup.GET("/config", handlers.GetAdminRuntimeConfig(d.DB, d.Manager))
			adminGroup.PUT("/config", handlers.UpdateAdminRuntimeConfig(d.DB, cfg, d.Manager))
			adminGroup.POST("/players/:id/credit", handlers.CreditPlayer(d.DB, d.Players, d.Ledger))
			adminGroup.GET("/audit", handlers.GetAdminAuditLogs(d.DB))
		}
	}
}
