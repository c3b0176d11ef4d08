package game

import (
	"context"
	"sync"
	"testing"
)

// fixedSource always returns the same value; 0.5 means no jitter and no variance.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

// testWallet is an in-memory Wallet that records every reservation.
type testWallet struct {
	mu       sync.Mutex
	balances map[int]int64
	refs     []string
}

func newTestWallet(playerID int, balance int64) *testWallet {
	return &testWallet{balances: map[int]int64{playerID: balance}}
}

func (w *testWallet) Reserve(_ context.Context, playerID int, amount int64, ref string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balances[playerID] < amount {
		return ErrInsufficientBalance
	}
	w.balances[playerID] -= amount
	w.refs = append(w.refs, ref)
	return nil
}

func (w *testWallet) balance(playerID int) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[playerID]
}

func classicConfig(t *testing.T) BoardConfig {
	t.Helper()
	presets, err := LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	cfg, err := presets.Get("classic")
	if err != nil {
		t.Fatalf("Get classic: %v", err)
	}
	return cfg
}

func mustBoard(t *testing.T, cfg BoardConfig) *Board {
	t.Helper()
	b, err := NewBoard(cfg)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

// pegFreeBoard is the classic board with every peg removed.
func pegFreeBoard(t *testing.T) *Board {
	t.Helper()
	cfg := classicConfig(t)
	cfg.Rows = 0
	return mustBoard(t, cfg)
}

func newTestSession(t *testing.T, board *Board, rng RandomSource, wallet Wallet) *Session {
	t.Helper()
	return NewSession(SessionParams{
		ID:       "test-session",
		PlayerID: 1,
		Board:    board,
		Rng:      rng,
		Wallet:   wallet,
	})
}

// advanceUntil ticks the session until n landing events were produced.
func advanceUntil(t *testing.T, s *Session, n, maxTicks int) []LandingEvent {
	t.Helper()
	var events []LandingEvent
	for i := 0; i < maxTicks && len(events) < n; i++ {
		events = append(events, s.Advance()...)
	}
	if len(events) < n {
		t.Fatalf("got %d landings after %d ticks, want %d", len(events), maxTicks, n)
	}
	return events
}
