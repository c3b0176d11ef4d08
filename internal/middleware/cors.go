package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playpool/plinko/internal/config"
)

func allowedOrigins(cfg *config.Config) []string {
	if cfg.Environment == "development" {
		return []string{
			"http://localhost:5173", // Vite dev server
			"http://127.0.0.1:5173",
		}
	}
	origins := []string{}
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	return origins
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	origins := allowedOrigins(cfg)
	log.Printf("[CORS] Environment: %s, allowed origins: %v", cfg.Environment, origins)

	corsConfig := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"X-Admin-Phone", "X-Admin-Token", "Accept", "Cache-Control",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour, // Cache preflight responses
	}
	if len(origins) == 0 {
		// no FRONTEND_URL outside development
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	return cors.New(corsConfig)
}

// WebSocketCORSCheck validates WebSocket upgrade origins
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	origins := allowedOrigins(cfg)
	return func(c *gin.Context) {
		// Only check for WebSocket upgrade requests
		if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			// non-browser clients (CLI, tests) send no origin
			c.Next()
			return
		}

		allowed := false
		if cfg.Environment == "development" {
			allowed = strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")
		} else {
			for _, o := range origins {
				if origin == o {
					allowed = true
					break
				}
			}
		}

		if !allowed {
			c.AbortWithStatusJSON(403, gin.H{"error": "WebSocket origin not allowed"})
			return
		}
		c.Next()
	}
}
