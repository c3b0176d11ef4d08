package game

import (
	"testing"
)

func TestStepDoesNotMutateInput(t *testing.T) {
	board := mustBoard(t, classicConfig(t))
	in := State{Balls: []Ball{newBall(1, 10, board.Config, fixedSource(0.7))}}
	before := in.Balls[0]

	out, _ := Step(in, board, fixedSource(0.5))
	if in.Balls[0] != before {
		t.Errorf("input ball changed: %+v -> %+v", before, in.Balls[0])
	}
	if out.Tick != 1 || out.Balls[0].Position == before.Position {
		t.Errorf("output did not advance: %+v", out)
	}
}

func TestStepRetiresLandedBallsNextTick(t *testing.T) {
	board := pegFreeBoard(t)
	state := State{Balls: []Ball{newBall(1, 10, board.Config, fixedSource(0.5))}}

	var landedAt uint64
	for i := 0; i < 1000 && landedAt == 0; i++ {
		var landings []Landing
		state, landings = Step(state, board, fixedSource(0.5))
		if len(landings) == 1 {
			landedAt = state.Tick
		}
	}
	if landedAt == 0 {
		t.Fatalf("ball never landed")
	}
	if len(state.Balls) != 1 || !state.Balls[0].Landed() {
		t.Fatalf("landed ball should stay for one snapshot: %+v", state.Balls)
	}

	state, landings := Step(state, board, fixedSource(0.5))
	if len(landings) != 0 {
		t.Errorf("landing emitted twice")
	}
	if len(state.Balls) != 0 {
		t.Errorf("landed ball not retired: %+v", state.Balls)
	}
}

func TestStepKeepsBallsInBounds(t *testing.T) {
	board := mustBoard(t, classicConfig(t))
	cfg := board.Config
	rng := NewSeededSource(7)
	store := NewBallStore(cfg.MaxConcurrentBalls)
	for i := 0; i < cfg.MaxConcurrentBalls; i++ {
		if _, err := store.Spawn(10, cfg, rng); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	for tick := 0; tick < 2000 && store.Len() > 0; tick++ {
		store.Advance(board, rng)
		for _, b := range store.Active() {
			if b.Position.X < 0 || b.Position.X > cfg.Width || b.Position.Y < 0 || b.Position.Y > cfg.Height {
				t.Fatalf("tick %d: ball %d at %+v outside the canvas", tick, b.ID, b.Position)
			}
			if b.Landed() && (b.Slot < 0 || b.Slot >= cfg.SlotCount) {
				t.Fatalf("ball %d landed in slot %d", b.ID, b.Slot)
			}
			if !b.Landed() && b.Slot != SlotUnset {
				t.Fatalf("in-flight ball %d has slot %d", b.ID, b.Slot)
			}
		}
	}
	if store.Len() != 0 {
		t.Errorf("%d balls still on the board", store.Len())
	}
}

func TestBallStoreCapAndRemove(t *testing.T) {
	cfg := classicConfig(t)
	store := NewBallStore(2)
	a, _ := store.Spawn(1, cfg, fixedSource(0.5))
	b, _ := store.Spawn(1, cfg, fixedSource(0.5))
	if a.ID == b.ID || b.ID != a.ID+1 {
		t.Errorf("ids not monotonic: %d, %d", a.ID, b.ID)
	}
	if _, err := store.Spawn(1, cfg, fixedSource(0.5)); err == nil {
		t.Fatalf("spawn beyond the cap succeeded")
	}
	if !store.Remove(a.ID) || store.Remove(a.ID) {
		t.Errorf("Remove should succeed exactly once")
	}
	c, err := store.Spawn(1, cfg, fixedSource(0.5))
	if err != nil {
		t.Fatalf("spawn after remove: %v", err)
	}
	if c.ID <= b.ID {
		t.Errorf("id %d reused", c.ID)
	}
}
