package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/playpool/plinko/internal/config"
	pubsub "github.com/playpool/plinko/internal/redis"
	"github.com/redis/go-redis/v9"
)

// SessionClosedEvent is published when a session is reaped or finished.
type SessionClosedEvent struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	PlayerID   int    `json:"player_id"`
	Wagered    int64  `json:"wagered"`
	Winnings   int64  `json:"winnings"`
	ServerSeed string `json:"server_seed,omitempty"`
	Reason     string `json:"reason"`
}

// ClosedEvent describes the session's final totals. The server seed is
// included once the session is closed.
func (s *Session) ClosedEvent(reason string) SessionClosedEvent {
	wagered, winnings := s.Totals()
	ev := SessionClosedEvent{
		Type:      "session_closed",
		SessionID: s.ID,
		PlayerID:  s.PlayerID,
		Wagered:   wagered,
		Winnings:  winnings,
		Reason:    reason,
	}
	ev.ServerSeed, _ = s.RevealServerSeed()
	return ev
}

// IdleReaper closes sessions that have had no activity for the configured
// idle period and have nothing in flight. Deadlines live in the Redis sorted
// set session_idle (score = unix deadline); without Redis it scans the
// manager instead.
type IdleReaper struct {
	manager *Manager
	rdb     *redis.Client
	idle    time.Duration
	poll    time.Duration

	// OnClosed, when set, receives every close event (in addition to Redis).
	OnClosed func(SessionClosedEvent)
}

func NewIdleReaper(m *Manager, rdb *redis.Client, cfg *config.Config) *IdleReaper {
	idle := time.Duration(cfg.SessionIdleSeconds) * time.Second
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	poll := time.Duration(cfg.IdleWorkerPollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &IdleReaper{manager: m, rdb: rdb, idle: idle, poll: poll}
}

// Touch pushes the session's idle deadline forward.
func (r *IdleReaper) Touch(ctx context.Context, sessionID string) {
	if r == nil || r.rdb == nil {
		return
	}
	deadline := time.Now().Add(r.idle).Unix()
	if err := r.rdb.ZAdd(ctx, pubsub.KeySessionIdle, redis.Z{Score: float64(deadline), Member: sessionID}).Err(); err != nil {
		log.Printf("[IDLE] failed to schedule session=%s: %v", sessionID, err)
	}
}

// Start runs the reaper in the background until ctx is done.
func (r *IdleReaper) Start(ctx context.Context) {
	if r.rdb == nil {
		log.Println("[IDLE] Redis missing; reaping sessions from the in-memory registry")
	}
	log.Printf("[IDLE] Idle reaper started (idle=%s poll=%s)", r.idle, r.poll)
	go func() {
		ticker := time.NewTicker(r.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle reaper stopping")
				return
			case now := <-ticker.C:
				if r.rdb != nil {
					r.sweepRedis(ctx, now)
				} else {
					r.sweepLocal(ctx, now)
				}
			}
		}
	}()
}

func (r *IdleReaper) sweepRedis(ctx context.Context, now time.Time) {
	members, err := r.rdb.ZRangeByScore(ctx, pubsub.KeySessionIdle, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now.Unix())}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
		return
	}
	for _, id := range members {
		// Attempt to remove (race-safe with other instances)
		if removed, _ := r.rdb.ZRem(ctx, pubsub.KeySessionIdle, id).Result(); removed == 0 {
			continue
		}
		s, err := r.manager.GetSession(id)
		if err != nil {
			// owned by another instance or already gone
			continue
		}
		if deadline, ok := r.due(s, now); !ok {
			r.rdb.ZAdd(ctx, pubsub.KeySessionIdle, redis.Z{Score: float64(deadline.Unix()), Member: id})
			continue
		}
		r.close(ctx, s, "idle")
	}
}

func (r *IdleReaper) sweepLocal(ctx context.Context, now time.Time) {
	for _, s := range r.manager.Sessions() {
		if _, ok := r.due(s, now); ok {
			r.close(ctx, s, "idle")
		}
	}
}

// due reports whether s can be reaped at now; otherwise it returns the next
// time worth checking.
func (r *IdleReaper) due(s *Session, now time.Time) (time.Time, bool) {
	deadline := s.LastActivity().Add(r.idle)
	if now.Before(deadline) {
		return deadline, false
	}
	if !s.Idle() {
		return now.Add(r.poll), false
	}
	return deadline, true
}

func (r *IdleReaper) close(ctx context.Context, s *Session, reason string) {
	removed, err := r.manager.CloseSession(s.ID)
	if err != nil || !removed {
		return
	}
	log.Printf("[IDLE] Closed session=%s player=%d (%s)", s.ID, s.PlayerID, reason)
	r.Announce(ctx, s, reason)
}

// Announce publishes the close event for a session that was just removed.
func (r *IdleReaper) Announce(ctx context.Context, s *Session, reason string) {
	ev := s.ClosedEvent(reason)

	if r.rdb != nil {
		r.rdb.ZRem(ctx, pubsub.KeySessionIdle, s.ID)
		if n, err := pubsub.PublishJSON(ctx, r.rdb, pubsub.ChannelEvents, ev); err != nil {
			log.Printf("[IDLE] publish session_closed failed: session=%s err=%v", s.ID, err)
		} else {
			log.Printf("[IDLE] published session_closed: session=%s subscribers=%d", s.ID, n)
		}
	}
	if r.OnClosed != nil {
		r.OnClosed(ev)
	}
}
