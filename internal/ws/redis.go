package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/game"
	pubsub "github.com/playpool/plinko/internal/redis"
	"github.com/redis/go-redis/v9"
)

// eventHeader is the part of every plinko_events payload used for routing.
type eventHeader struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Landing   struct {
		SessionID string `json:"session_id"`
	} `json:"landing"`
}

// Route returns the session an event belongs to.
func (e eventHeader) Route() string {
	if e.SessionID != "" {
		return e.SessionID
	}
	return e.Landing.SessionID
}

// StartEventSubscriber forwards plinko_events to the matching session rooms.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	sub := rdb.Subscribe(ctx, pubsub.ChannelEvents)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		log.Printf("[WS] %s subscriber started", pubsub.ChannelEvents)
		for msg := range ch {
			hub.Dispatch([]byte(msg.Payload))
		}
		log.Printf("[WS] %s subscriber stopped", pubsub.ChannelEvents)
	}()
}

// Dispatch routes one encoded event to its session room.
func (h *Hub) Dispatch(payload []byte) {
	var head eventHeader
	if err := json.Unmarshal(payload, &head); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}
	sessionID := head.Route()
	if sessionID == "" {
		log.Printf("[WS] event %s has no session id", head.Type)
		return
	}

	switch head.Type {
	case "ball_landed", "session_closed":
		if h.RoomSize(sessionID) == 0 {
			return
		}
		h.BroadcastRaw(sessionID, payload)
	default:
		log.Printf("[WS] unknown event type: %s", head.Type)
	}
}

// BroadcastLanded delivers a settled landing without going through Redis.
func (h *Hub) BroadcastLanded(msg accounts.LandedMessage) {
	h.BroadcastToSession(msg.Landing.SessionID, msg)
}

// BroadcastClosed delivers a session close without going through Redis.
func (h *Hub) BroadcastClosed(ev game.SessionClosedEvent) {
	h.BroadcastToSession(ev.SessionID, ev)
}
