package game

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ManagerOptions are the process-wide engine settings. Zero values fall back
// to the board's own settings.
type ManagerOptions struct {
	TickRate            int
	MaxConcurrentBalls  int
	PayoutVarianceBound *float64
	Limits              SessionLimits
	FairMode            bool
	LandingBuffer       int
}

// Manager owns every live session and the shared landing channel consumed by
// settlement.
type Manager struct {
	presets   *Presets
	wallet    Wallet
	opts      ManagerOptions
	landings  chan LandingEvent
	snapshots SnapshotSink
	ctx       context.Context

	sessions       map[string]*managedSession
	playerSessions map[int]map[string]struct{}
	mu             sync.RWMutex
}

type managedSession struct {
	session *Session
	clock   *Clock
}

// NewManager creates a manager. Call Start before creating sessions.
func NewManager(presets *Presets, wallet Wallet, opts ManagerOptions) *Manager {
	if opts.LandingBuffer <= 0 {
		opts.LandingBuffer = 256
	}
	return &Manager{
		presets:        presets,
		wallet:         wallet,
		opts:           opts,
		landings:       make(chan LandingEvent, opts.LandingBuffer),
		ctx:            context.Background(),
		sessions:       make(map[string]*managedSession),
		playerSessions: make(map[int]map[string]struct{}),
	}
}

// Start sets the context every session clock runs under.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
}

// SetSnapshotSink installs the render snapshot consumer for new sessions.
func (m *Manager) SetSnapshotSink(sink SnapshotSink) {
	m.mu.Lock()
	m.snapshots = sink
	m.mu.Unlock()
}

// Landings is the stream of landing events for the settlement consumer.
func (m *Manager) Landings() <-chan LandingEvent {
	return m.landings
}

// Presets exposes the board presets the manager creates sessions from.
func (m *Manager) Presets() *Presets {
	return m.presets
}

// Options returns the current engine options.
func (m *Manager) Options() ManagerOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// UpdateOptions applies new cap and bet limits to future and live sessions.
func (m *Manager) UpdateOptions(opts ManagerOptions) {
	m.mu.Lock()
	opts.LandingBuffer = m.opts.LandingBuffer
	m.opts = opts
	live := make([]*Session, 0, len(m.sessions))
	for _, ms := range m.sessions {
		live = append(live, ms.session)
	}
	m.mu.Unlock()

	for _, s := range live {
		if opts.MaxConcurrentBalls > 0 {
			s.SetMaxConcurrent(opts.MaxConcurrentBalls)
		}
		s.SetLimits(opts.Limits)
	}
	log.Printf("[ENGINE] options updated: max_concurrent=%d min_bet=%d max_bet=%d", opts.MaxConcurrentBalls, opts.Limits.MinBet, opts.Limits.MaxBet)
}

// BoardFor resolves a preset and applies the manager-wide overrides.
func (m *Manager) BoardFor(name string) (*Board, error) {
	cfg, err := m.presets.Get(name)
	if err != nil {
		return nil, err
	}
	opts := m.Options()
	if opts.MaxConcurrentBalls > 0 {
		cfg.MaxConcurrentBalls = opts.MaxConcurrentBalls
	}
	if opts.PayoutVarianceBound != nil {
		cfg.PayoutVarianceBound = *opts.PayoutVarianceBound
	}
	return NewBoard(cfg)
}

// CreateSession opens a session for playerID on the named board.
func (m *Manager) CreateSession(playerID int, boardName, clientSeed string) (*Session, error) {
	board, err := m.BoardFor(boardName)
	if err != nil {
		return nil, err
	}

	opts := m.Options()
	params := SessionParams{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Board:    board,
		Wallet:   m.wallet,
		Limits:   opts.Limits,
	}
	if opts.FairMode {
		if clientSeed == "" {
			clientSeed = uuid.NewString()
		}
		params.ServerSeed = NewServerSeed()
		params.ClientSeed = clientSeed
		params.Rng = NewFairSource(params.ServerSeed, clientSeed, 0)
	} else {
		params.Rng = NewDefaultSource()
	}
	return m.register(NewSession(params)), nil
}

// Adopt registers an externally built session (used by tests and tooling
// that need a specific random source).
func (m *Manager) Adopt(s *Session) *Session {
	return m.register(s)
}

func (m *Manager) register(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	clock := NewClock(s, m.opts.TickRate, m.landings, m.snapshots)
	ctx := m.ctx
	s.OnSpawn(func() { clock.Wake(ctx) })

	m.sessions[s.ID] = &managedSession{session: s, clock: clock}
	if m.playerSessions[s.PlayerID] == nil {
		m.playerSessions[s.PlayerID] = make(map[string]struct{})
	}
	m.playerSessions[s.PlayerID][s.ID] = struct{}{}

	log.Printf("[ENGINE] session=%s created for player=%d board=%s", s.ID, s.PlayerID, s.BoardName)
	return s
}

// GetSession looks a session up by id.
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return ms.session, nil
}

// Clock returns the clock driving a session.
func (m *Manager) Clock(id string) (*Clock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return ms.clock, nil
}

// SessionsForPlayer lists a player's live sessions, oldest first.
func (m *Manager) SessionsForPlayer(playerID int) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.playerSessions[playerID]))
	for id := range m.playerSessions[playerID] {
		out = append(out, m.sessions[id].session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Sessions returns every live session.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, ms := range m.sessions {
		out = append(out, ms.session)
	}
	return out
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseSession finishes a session and, once nothing is in flight, removes it.
// It reports whether the session was removed.
func (m *Manager) CloseSession(id string) (bool, error) {
	s, err := m.GetSession(id)
	if err != nil {
		return false, err
	}
	s.Finish()
	if !s.Idle() {
		return false, nil
	}

	m.mu.Lock()
	if ms, ok := m.sessions[id]; !ok || ms.session != s {
		// another caller closed it first
		m.mu.Unlock()
		return false, nil
	}
	delete(m.sessions, id)
	if set := m.playerSessions[s.PlayerID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(m.playerSessions, s.PlayerID)
		}
	}
	m.mu.Unlock()

	s.close()
	wagered, winnings := s.Totals()
	log.Printf("[ENGINE] session=%s closed (wagered=%d winnings=%d)", id, wagered, winnings)
	return true, nil
}
