package game

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func newTestManager(t *testing.T, wallet Wallet, opts ManagerOptions) *Manager {
	t.Helper()
	presets, err := LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	m := NewManager(presets, wallet, opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)
	return m
}

func TestManagerSessionLifecycle(t *testing.T) {
	wallet := newTestWallet(7, 100)
	m := newTestManager(t, wallet, ManagerOptions{TickRate: 1000})

	s, err := m.CreateSession(7, "", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.BoardName != "classic" || s.ID == "" {
		t.Errorf("session = %s on %s", s.ID, s.BoardName)
	}
	if got, err := m.GetSession(s.ID); err != nil || got != s {
		t.Errorf("GetSession = %v, %v", got, err)
	}
	if len(m.SessionsForPlayer(7)) != 1 || m.ActiveSessions() != 1 {
		t.Errorf("registry counts wrong")
	}

	id, err := s.Drop(context.Background(), 10)
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	select {
	case ev := <-m.Landings():
		if ev.BallID != id || ev.SessionID != s.ID || ev.PlayerID != 7 {
			t.Errorf("landing = %+v", ev)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("no landing from the manager channel")
	}

	clock, _ := m.Clock(s.ID)
	clock.Wait()
	removed, err := m.CloseSession(s.ID)
	if err != nil || !removed {
		t.Fatalf("CloseSession = %v, %v", removed, err)
	}
	if _, err := m.GetSession(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("closed session still registered: %v", err)
	}
	if s.Status() != SessionClosed {
		t.Errorf("status = %s", s.Status())
	}
}

func TestManagerUnknownBoard(t *testing.T) {
	m := newTestManager(t, nil, ManagerOptions{})
	if _, err := m.CreateSession(1, "missing", ""); !errors.Is(err, ErrUnknownBoard) {
		t.Errorf("CreateSession = %v", err)
	}
	if _, err := m.CloseSession("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CloseSession = %v", err)
	}
}

func TestManagerFairMode(t *testing.T) {
	m := newTestManager(t, nil, ManagerOptions{FairMode: true})
	s, err := m.CreateSession(1, "prototype", "my-seed")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.ClientSeed() != "my-seed" || len(s.ServerSeedHash()) != 64 {
		t.Errorf("fair session seeds: %q %q", s.ClientSeed(), s.ServerSeedHash())
	}
	if _, err := m.CloseSession(s.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	seed, ok := s.RevealServerSeed()
	if !ok || HashServerSeed(seed) != s.ServerSeedHash() {
		t.Errorf("revealed seed does not match the commitment")
	}
}

func TestManagerOverridesAndUpdates(t *testing.T) {
	bound := 0.0
	m := newTestManager(t, newTestWallet(1, 1000), ManagerOptions{
		MaxConcurrentBalls:  1,
		PayoutVarianceBound: &bound,
	})

	board, err := m.BoardFor("classic")
	if err != nil {
		t.Fatalf("BoardFor: %v", err)
	}
	if board.Config.MaxConcurrentBalls != 1 || board.Config.PayoutVarianceBound != 0 {
		t.Errorf("overrides not applied: %+v", board.Config)
	}

	s, _ := m.CreateSession(1, "classic", "")
	m.UpdateOptions(ManagerOptions{MaxConcurrentBalls: 5, Limits: SessionLimits{MinBet: 20}})
	if _, err := s.Drop(context.Background(), 10); !errors.Is(err, ErrInvalidBetAmount) {
		t.Errorf("min bet not applied to live session: %v", err)
	}
}

func TestCloseSessionWaitsForBalls(t *testing.T) {
	// Slow clock so the ball is still in flight when the close arrives.
	m := newTestManager(t, newTestWallet(1, 100), ManagerOptions{TickRate: 5})
	s, _ := m.CreateSession(1, "classic", "")
	if _, err := s.Drop(context.Background(), 10); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	removed, err := m.CloseSession(s.ID)
	if err != nil || removed {
		t.Fatalf("CloseSession = %v, %v; want kept while in flight", removed, err)
	}
	if s.Status() != SessionFinished {
		t.Errorf("status = %s, want FINISHED", s.Status())
	}
	if _, err := s.Drop(context.Background(), 10); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("drop after close = %v", err)
	}
}

func TestManagerRejectsNonFiniteVarianceBound(t *testing.T) {
	bound := math.Inf(1)
	m := newTestManager(t, newTestWallet(1, 100), ManagerOptions{PayoutVarianceBound: &bound})
	if _, err := m.BoardFor("classic"); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("BoardFor = %v, want ErrInvalidBoard", err)
	}
	if _, err := m.CreateSession(1, "classic", ""); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("CreateSession = %v, want ErrInvalidBoard", err)
	}
}

func TestCloseSessionRemovesOnce(t *testing.T) {
	m := newTestManager(t, nil, ManagerOptions{})
	s, err := m.CreateSession(1, "classic", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed, _ := m.CloseSession(s.ID)
			results <- removed
		}()
	}
	wg.Wait()
	close(results)

	removedCount := 0
	for removed := range results {
		if removed {
			removedCount++
		}
	}
	if removedCount != 1 {
		t.Errorf("session removed %d times, want 1", removedCount)
	}
}
