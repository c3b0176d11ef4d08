package accounts

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/playpool/plinko/internal/game"
	pubsub "github.com/playpool/plinko/internal/redis"
	"github.com/redis/go-redis/v9"
)

// LandedMessage is what the settlement worker publishes for every landed ball.
type LandedMessage struct {
	Type    string            `json:"type"`
	Landing game.LandingEvent `json:"landing"`
	Balance *int64            `json:"balance,omitempty"`
}

// Settler consumes landing events: it credits the payout, records the drop
// and announces the result. It never feeds errors back into the engine.
type Settler struct {
	ledger  Ledger
	history History
	rdb     *redis.Client

	// Local receives every landing after settlement; used to broadcast
	// directly when Redis is not configured.
	Local func(LandedMessage)

	// DrainTimeout bounds settlement of landings still arriving at shutdown.
	DrainTimeout time.Duration
}

// drainQuiet is how long the shutdown drain waits for another landing
// before deciding the clocks have flushed.
const drainQuiet = 250 * time.Millisecond

func NewSettler(ledger Ledger, history History, rdb *redis.Client) *Settler {
	return &Settler{ledger: ledger, history: history, rdb: rdb, DrainTimeout: 5 * time.Second}
}

// drain settles landings that are buffered or still being flushed by stopping
// clocks. Whatever is left when DrainTimeout expires is logged as unpaid.
func (s *Settler) drain(landings <-chan game.LandingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.DrainTimeout)
	defer cancel()

	settled := 0
	quiet := time.NewTimer(drainQuiet)
	defer quiet.Stop()
	for {
		select {
		case ev, ok := <-landings:
			if !ok {
				log.Printf("[SETTLE] drained %d landings", settled)
				return
			}
			s.Settle(ctx, ev)
			settled++
			quiet.Reset(drainQuiet)
		case <-quiet.C:
			log.Printf("[SETTLE] drained %d landings", settled)
			return
		case <-ctx.Done():
			log.Printf("[SETTLE] drain timed out after %d landings", settled)
			for {
				select {
				case ev, ok := <-landings:
					if !ok {
						return
					}
					log.Printf("[SETTLE] UNPAID landing ref=%s player=%d payout=%d", PayoutReference(ev), ev.PlayerID, ev.Payout)
				default:
					return
				}
			}
		}
	}
}

// Run settles events until ctx is cancelled or the channel closes.
func (s *Settler) Run(ctx context.Context, landings <-chan game.LandingEvent) {
	log.Println("[SETTLE] Settlement worker started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[SETTLE] Settlement worker stopping (%d events buffered)", len(landings))
			s.drain(landings)
			return
		case ev, ok := <-landings:
			if !ok {
				log.Println("[SETTLE] Landing channel closed")
				return
			}
			s.Settle(ctx, ev)
		}
	}
}

// PayoutReference identifies a ball's payout across retries.
func PayoutReference(ev game.LandingEvent) string {
	return ev.SessionID + ":" + formatBall(ev.BallID)
}

func formatBall(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Settle handles one landing event.
func (s *Settler) Settle(ctx context.Context, ev game.LandingEvent) {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.ledger.Credit(opCtx, ev.PlayerID, ev.Payout, PayoutReference(ev)); err != nil {
		log.Printf("[SETTLE] credit failed: session=%s ball=%d player=%d payout=%d err=%v", ev.SessionID, ev.BallID, ev.PlayerID, ev.Payout, err)
	}
	if s.history != nil {
		if err := s.history.RecordDrop(opCtx, ev); err != nil {
			log.Printf("[SETTLE] record drop failed: session=%s ball=%d err=%v", ev.SessionID, ev.BallID, err)
		}
	}

	msg := LandedMessage{Type: "ball_landed", Landing: ev}
	if bal, err := s.ledger.Balance(opCtx, ev.PlayerID); err == nil {
		msg.Balance = &bal
	}

	log.Printf("[SETTLE] session=%s ball=%d slot=%d multiplier=%.3f payout=%d", ev.SessionID, ev.BallID, ev.Slot, ev.Multiplier, ev.Payout)

	if s.rdb != nil {
		if _, err := pubsub.PublishJSON(opCtx, s.rdb, pubsub.ChannelEvents, msg); err != nil {
			log.Printf("[SETTLE] publish failed: %v", err)
		} else {
			return
		}
	}
	if s.Local != nil {
		s.Local(msg)
	}
}

