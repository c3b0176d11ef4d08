package game

import (
	"context"
	"log"
	"sync"
	"time"
)

// Clock drives one session at a fixed tick rate. It runs only while the
// session has balls; the next admitted drop wakes it again.
type Clock struct {
	session   *Session
	interval  time.Duration
	landings  chan<- LandingEvent
	snapshots SnapshotSink

	mu      sync.Mutex
	running bool
	outbox  []LandingEvent // landings the consumer has not accepted yet
	done    chan struct{}
}

// NewClock creates a paused clock. landings may be nil (events are dropped
// after being counted); snapshots may be nil.
func NewClock(session *Session, tickRate int, landings chan<- LandingEvent, snapshots SnapshotSink) *Clock {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Clock{
		session:   session,
		interval:  time.Second / time.Duration(tickRate),
		landings:  landings,
		snapshots: snapshots,
	}
}

// Wake starts the tick loop unless it is already running.
func (c *Clock) Wake(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// Running reports whether the tick loop is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Wait blocks until the current tick loop (if any) has paused.
func (c *Clock) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Clock) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Printf("[CLOCK] session=%s tick loop started (%s/tick)", c.session.ID, c.interval)
	for {
		select {
		case <-ctx.Done():
			lost := c.drain(ShutdownDrainTimeout)
			for _, ev := range lost {
				log.Printf("[CLOCK] session=%s LOST landing ball=%d player=%d bet=%d payout=%d", ev.SessionID, ev.BallID, ev.PlayerID, ev.Bet, ev.Payout)
			}
			log.Printf("[CLOCK] session=%s stopping: %v (lost landings=%d, balls in flight=%d)", c.session.ID, ctx.Err(), len(lost), c.session.InFlight())
			return
		case <-ticker.C:
			if c.tick() {
				return
			}
		}
	}
}

// tick runs one step and reports whether the loop paused.
func (c *Clock) tick() bool {
	events := c.session.Advance()
	if c.snapshots != nil {
		c.snapshots.PublishSnapshot(c.session.ID, c.session.Snapshot())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.outbox = append(c.outbox, events...)
	c.flushLocked()

	if c.session.Idle() && len(c.outbox) == 0 {
		c.running = false
		log.Printf("[CLOCK] session=%s no balls in flight, pausing", c.session.ID)
		return true
	}
	return false
}

// flushLocked hands queued landings to the consumer without blocking.
// Whatever does not fit stays queued for the next tick.
func (c *Clock) flushLocked() {
	if c.landings == nil {
		c.outbox = c.outbox[:0]
		return
	}
	sent := 0
	for _, ev := range c.outbox {
		select {
		case c.landings <- ev:
			sent++
			continue
		default:
		}
		break
	}
	if sent > 0 {
		c.outbox = append(c.outbox[:0], c.outbox[sent:]...)
	}
	if len(c.outbox) > 0 {
		log.Printf("[CLOCK] session=%s landing consumer busy, %d events queued", c.session.ID, len(c.outbox))
	}
}

// drain hands every queued landing to the consumer, waiting at most timeout
// in total, and returns the ones that could not be delivered.
func (c *Clock) drain(timeout time.Duration) []LandingEvent {
	c.mu.Lock()
	pending := append([]LandingEvent(nil), c.outbox...)
	c.outbox = c.outbox[:0]
	c.running = false
	c.mu.Unlock()

	if len(pending) == 0 || c.landings == nil {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for i, ev := range pending {
		select {
		case c.landings <- ev:
		case <-timer.C:
			return pending[i:]
		}
	}
	return nil
}
