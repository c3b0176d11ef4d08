package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/middleware"
)

// Server glues the hub to the engine: it upgrades authenticated requests
// and carries out the actions clients send.
type Server struct {
	Hub     *Hub
	Manager *game.Manager
	Reaper  *game.IdleReaper

	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, manager *game.Manager, reaper *game.IdleReaper) *Server {
	return &Server{
		Hub:     hub,
		Manager: manager,
		Reaper:  reaper,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are checked by middleware.WebSocketCORSCheck
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Drop admits a ball into the session and refreshes its idle deadline.
func (s *Server) Drop(ctx context.Context, sessionID string, bet int64) (uint64, error) {
	session, err := s.Manager.GetSession(sessionID)
	if err != nil {
		return 0, err
	}
	ballID, err := session.Drop(ctx, bet)
	if err != nil {
		return 0, err
	}
	s.Reaper.Touch(ctx, sessionID)
	return ballID, nil
}

// Finish stops new drops and closes the session once its balls settle.
func (s *Server) Finish(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.Manager.GetSession(sessionID)
	if err != nil {
		return false, err
	}
	removed, err := s.Manager.CloseSession(sessionID)
	if err != nil {
		return false, err
	}
	if removed {
		if s.Reaper != nil {
			s.Reaper.Announce(ctx, session, "finished")
		} else {
			s.Hub.BroadcastClosed(session.ClosedEvent("finished"))
		}
	}
	return removed, nil
}

// HandleWebSocket upgrades a request that passed middleware.SessionAuth.
func (s *Server) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(middleware.CtxSessionID)
		playerID := c.GetInt(middleware.CtxPlayerID)
		if sessionID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not match session"})
			return
		}
		session, err := s.Manager.GetSession(sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed for session %s: %v", sessionID, err)
			return
		}

		client := &Client{
			server:    s,
			conn:      conn,
			sessionID: sessionID,
			playerID:  playerID,
			send:      make(chan []byte, 256),
		}
		if data, err := json.Marshal(Envelope{Type: "board_snapshot", Data: session.Snapshot()}); err == nil {
			client.send <- data
		}
		if !s.Hub.join(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
