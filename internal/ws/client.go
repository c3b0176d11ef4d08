package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playpool/plinko/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

// Client is one websocket connection watching (and playing) a session.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	sessionID string
	playerID  int
	send      chan []byte
}

// ClientMessage is what the browser sends.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type dropData struct {
	BetAmount json.Number `json:"bet_amount"`
}

// readPump handles drop/finish/get_state until the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.server.Hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error for player %d: %v", c.playerID, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("InvalidMessage", "message is not valid JSON")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Type {
	case "drop":
		var d dropData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			c.sendError("InvalidBetAmount", "bet_amount must be a positive integer")
			return
		}
		bet, err := ParseBet(d.BetAmount)
		if err != nil {
			c.sendError(game.ErrorCode(err), err.Error())
			return
		}
		ballID, err := c.server.Drop(ctx, c.sessionID, bet)
		if err != nil {
			c.sendError(game.ErrorCode(err), err.Error())
			return
		}
		c.sendJSON(Envelope{Type: "drop_accepted", Data: map[string]interface{}{"ball_id": ballID, "bet_amount": bet}})

	case "finish":
		removed, err := c.server.Finish(ctx, c.sessionID)
		if err != nil {
			c.sendError(game.ErrorCode(err), err.Error())
			return
		}
		c.sendJSON(Envelope{Type: "session_finished", Data: map[string]interface{}{"closed": removed}})

	case "get_state":
		s, err := c.server.Manager.GetSession(c.sessionID)
		if err != nil {
			c.sendError(game.ErrorCode(err), err.Error())
			return
		}
		c.sendJSON(Envelope{Type: "board_snapshot", Data: s.Snapshot()})

	default:
		c.sendError("UnknownMessage", "unknown message type: "+msg.Type)
	}
}

// ParseBet accepts only positive whole numbers.
func ParseBet(n json.Number) (int64, error) {
	bet, err := n.Int64()
	if err != nil {
		return 0, errors.Join(game.ErrInvalidBetAmount, errors.New("bet_amount must be a positive integer"))
	}
	if bet <= 0 {
		return 0, game.ErrInvalidBetAmount
	}
	return bet, nil
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for player %d: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for player %d: %v", c.playerID, err)
				return
			}
		}
	}
}

func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	c.server.Hub.mu.RLock()
	defer c.server.Hub.mu.RUnlock()
	if _, ok := c.server.Hub.rooms[c.sessionID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] send buffer full for player %d, dropping reply", c.playerID)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": message,
	})
}
