package game

import (
	"errors"
	"testing"
)

func TestSimulateDropReproducible(t *testing.T) {
	board := mustBoard(t, classicConfig(t))
	a, err := SimulateDrop(board, NewSeededSource(11), 10, 0, true)
	if err != nil {
		t.Fatalf("SimulateDrop: %v", err)
	}
	b, _ := SimulateDrop(board, NewSeededSource(11), 10, 0, true)
	if a.Ticks != b.Ticks || a.Landed != b.Landed || len(a.Path) != len(b.Path) {
		t.Errorf("runs differ: %+v vs %+v", a.Landed, b.Landed)
	}
	if len(a.Path) != int(a.Ticks)+1 {
		t.Errorf("path has %d points for %d ticks", len(a.Path), a.Ticks)
	}
}

func TestSimulateDropStuck(t *testing.T) {
	// No jitter: the ball is released exactly above a peg and keeps being
	// kicked straight up.
	cfg := classicConfig(t)
	board := &Board{Config: cfg, Pegs: []Peg{{X: cfg.Width / 2, Y: 100}}}
	_, err := SimulateDrop(board, fixedSource(0.5), 10, 2000, false)
	if !errors.Is(err, ErrBallStuck) {
		t.Errorf("SimulateDrop = %v, want ErrBallStuck", err)
	}
}

func TestSimulateDropInvalidBet(t *testing.T) {
	board := mustBoard(t, classicConfig(t))
	if _, err := SimulateDrop(board, fixedSource(0.5), 0, 10, false); !errors.Is(err, ErrInvalidBetAmount) {
		t.Errorf("SimulateDrop = %v", err)
	}
}
