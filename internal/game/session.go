package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Wallet reserves bet funds at admission time. Reserve must debit atomically
// and return ErrInsufficientBalance (possibly wrapped) when funds are short.
type Wallet interface {
	Reserve(ctx context.Context, playerID int, amount int64, reference string) error
}

// LandingEvent is emitted exactly once per landed ball.
type LandingEvent struct {
	SessionID      string    `json:"session_id"`
	PlayerID       int       `json:"player_id"`
	BallID         uint64    `json:"ball_id"`
	Bet            int64     `json:"bet"`
	Slot           int       `json:"slot"`
	BaseMultiplier float64   `json:"base_multiplier"`
	Variance       float64   `json:"variance"`
	Multiplier     float64   `json:"multiplier"`
	Payout         int64     `json:"payout"`
	Tick           uint64    `json:"tick"`
	LandedAt       time.Time `json:"landed_at"`
}

// SessionLimits bound the accepted bet size. Zero means unbounded.
type SessionLimits struct {
	MinBet int64
	MaxBet int64
}

// Session owns one player's board and in-flight balls. Drop may be called
// from any goroutine; the tick (Advance) is driven by a single Clock.
type Session struct {
	ID        string
	PlayerID  int
	BoardName string
	CreatedAt time.Time

	board          *Board
	store          *BallStore
	rng            RandomSource
	wallet         Wallet
	limits         SessionLimits
	serverSeed     string
	serverSeedHash string
	clientSeed     string

	status       SessionStatus
	wagered      int64
	winnings     int64
	drops        int
	landed       int
	admissions   uint64
	lastActivity time.Time
	onSpawn      func()

	mu sync.Mutex
}

// SessionParams configures NewSession.
type SessionParams struct {
	ID         string
	PlayerID   int
	Board      *Board
	Rng        RandomSource
	Wallet     Wallet
	Limits     SessionLimits
	ServerSeed string // set when Rng is a FairSource
	ClientSeed string
}

// NewSession creates an open session. The store cap comes from the board.
func NewSession(p SessionParams) *Session {
	now := time.Now()
	rng := p.Rng
	if rng == nil {
		rng = NewDefaultSource()
	}
	s := &Session{
		ID:           p.ID,
		PlayerID:     p.PlayerID,
		BoardName:    p.Board.Config.Name,
		CreatedAt:    now,
		board:        p.Board,
		store:        NewBallStore(p.Board.Config.MaxConcurrentBalls),
		rng:          rng,
		wallet:       p.Wallet,
		limits:       p.Limits,
		serverSeed:   p.ServerSeed,
		clientSeed:   p.ClientSeed,
		status:       SessionOpen,
		lastActivity: now,
	}
	if p.ServerSeed != "" {
		s.serverSeedHash = HashServerSeed(p.ServerSeed)
	}
	return s
}

// Board returns the session's read-only board geometry.
func (s *Session) Board() *Board {
	return s.board
}

// ServerSeedHash is the provably fair commitment, empty when not in fair mode.
func (s *Session) ServerSeedHash() string {
	return s.serverSeedHash
}

// ClientSeed is the player supplied half of the fair seed pair.
func (s *Session) ClientSeed() string {
	return s.clientSeed
}

// RevealServerSeed returns the server seed once the session is closed.
func (s *Session) RevealServerSeed() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionClosed || s.serverSeed == "" {
		return "", false
	}
	return s.serverSeed, true
}

// OnSpawn registers a callback run after every admitted drop, outside the lock.
func (s *Session) OnSpawn(fn func()) {
	s.mu.Lock()
	s.onSpawn = fn
	s.mu.Unlock()
}

// Drop validates the bet, reserves funds and admits a new ball.
// A rejected drop leaves the store and the reserved balance untouched.
func (s *Session) Drop(ctx context.Context, bet int64) (uint64, error) {
	if bet <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBetAmount, bet)
	}

	s.mu.Lock()
	limits := s.limits
	if limits.MinBet > 0 && bet < limits.MinBet {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: minimum bet is %d", ErrInvalidBetAmount, limits.MinBet)
	}
	if limits.MaxBet > 0 && bet > limits.MaxBet {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: maximum bet is %d", ErrInvalidBetAmount, limits.MaxBet)
	}
	if s.status != SessionOpen {
		s.mu.Unlock()
		return 0, ErrSessionFinished
	}
	if err := s.store.Claim(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.admissions++
	ref := fmt.Sprintf("%s:%d", s.ID, s.admissions)
	s.mu.Unlock()

	// Funds are reserved outside the lock so a slow wallet never stalls the tick.
	var reserveErr error
	if s.wallet != nil {
		reserveErr = s.wallet.Reserve(ctx, s.PlayerID, bet, ref)
	}

	s.mu.Lock()
	if reserveErr != nil {
		s.store.Unclaim()
		s.mu.Unlock()
		if errors.Is(reserveErr, ErrInsufficientBalance) {
			return 0, reserveErr
		}
		return 0, fmt.Errorf("reserve bet: %w", reserveErr)
	}
	ball := s.store.SpawnClaimed(bet, s.board.Config, s.rng)
	s.wagered += bet
	s.drops++
	s.lastActivity = time.Now()
	wake := s.onSpawn
	s.mu.Unlock()

	log.Printf("[ENGINE] session=%s player=%d ball=%d dropped bet=%d", s.ID, s.PlayerID, ball.ID, bet)
	if wake != nil {
		wake()
	}
	return ball.ID, nil
}

// Advance runs one tick and returns the landing events it produced.
func (s *Session) Advance() []LandingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	landings := s.store.Advance(s.board, s.rng)
	if len(landings) == 0 {
		return nil
	}

	now := time.Now()
	events := make([]LandingEvent, 0, len(landings))
	for _, l := range landings {
		s.winnings += l.Payout
		s.landed++
		events = append(events, LandingEvent{
			SessionID:      s.ID,
			PlayerID:       s.PlayerID,
			BallID:         l.BallID,
			Bet:            l.Bet,
			Slot:           l.Slot,
			BaseMultiplier: l.BaseMultiplier,
			Variance:       l.Variance,
			Multiplier:     l.Multiplier,
			Payout:         l.Payout,
			Tick:           l.Tick,
			LandedAt:       now,
		})
	}
	s.lastActivity = now
	return events
}

// Finish stops admissions. Balls already in flight run to completion.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == SessionOpen {
		s.status = SessionFinished
	}
}

// close marks the session closed; only the Manager calls it.
func (s *Session) close() {
	s.mu.Lock()
	s.status = SessionClosed
	s.mu.Unlock()
}

// Remove discards a ball from the store. It reports whether it was present.
func (s *Session) Remove(ballID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Remove(ballID)
}

// SetMaxConcurrent changes the in-flight cap for future drops.
func (s *Session) SetMaxConcurrent(n int) {
	s.mu.Lock()
	s.store.SetMaxConcurrent(n)
	s.mu.Unlock()
}

// SetLimits changes the accepted bet range for future drops.
func (s *Session) SetLimits(l SessionLimits) {
	s.mu.Lock()
	s.limits = l
	s.mu.Unlock()
}

func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// InFlight counts balls that still need ticks.
func (s *Session) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.InFlight()
}

// Idle reports whether the store is empty and no admission is in progress.
func (s *Session) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len() == 0 && s.store.Pending() == 0
}

// LastActivity is the time of the last drop or landing.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Balls returns a copy of the balls currently in the store.
func (s *Session) Balls() []Ball {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Active()
}

// Totals returns the amount wagered and paid out so far.
func (s *Session) Totals() (wagered, winnings int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wagered, s.winnings
}
