package game

import (
	"math"
	"testing"
)

func TestIntegrate(t *testing.T) {
	cfg := classicConfig(t)
	b := Ball{Position: NewVec2(10, 10), Velocity: NewVec2(1, 0)}
	Integrate(&b, cfg)

	wantVX := 1 * cfg.Friction
	wantVY := cfg.Gravity
	if math.Abs(b.Velocity.X-wantVX) > 1e-12 || math.Abs(b.Velocity.Y-wantVY) > 1e-12 {
		t.Errorf("velocity = %+v, want (%v, %v)", b.Velocity, wantVX, wantVY)
	}
	if math.Abs(b.Position.X-(10+wantVX)) > 1e-12 || math.Abs(b.Position.Y-(10+wantVY)) > 1e-12 {
		t.Errorf("position = %+v", b.Position)
	}
}

func TestResolveWalls(t *testing.T) {
	cfg := classicConfig(t)

	left := Ball{Position: NewVec2(2, 100), Velocity: NewVec2(-3, 1)}
	if !ResolveWalls(&left, cfg) {
		t.Fatalf("left wall not detected")
	}
	if left.Position.X != cfg.BallRadius {
		t.Errorf("left x = %v, want %v", left.Position.X, cfg.BallRadius)
	}
	if math.Abs(left.Velocity.X-3*cfg.BounceDamping) > 1e-12 {
		t.Errorf("left vx = %v, want %v", left.Velocity.X, 3*cfg.BounceDamping)
	}

	right := Ball{Position: NewVec2(cfg.Width-1, 100), Velocity: NewVec2(2, 0)}
	ResolveWalls(&right, cfg)
	if right.Position.X != cfg.Width-cfg.BallRadius {
		t.Errorf("right x = %v", right.Position.X)
	}
	if right.Velocity.X >= 0 {
		t.Errorf("right vx = %v, want negative", right.Velocity.X)
	}

	inside := Ball{Position: NewVec2(200, 100), Velocity: NewVec2(2, 0)}
	if ResolveWalls(&inside, cfg) {
		t.Errorf("ball in the middle reported a wall hit")
	}
}

func TestResolvePegsFirstMatchWins(t *testing.T) {
	cfg := classicConfig(t)
	minDist := cfg.BallRadius + cfg.PegRadius
	pegs := []Peg{{X: 100, Y: 100}, {X: 106, Y: 100}}

	// Closer to the second peg, but the first overlapping peg in order is used.
	b := Ball{Position: NewVec2(104, 100), Velocity: NewVec2(0, 3)}
	hit := ResolvePegs(&b, pegs, cfg)
	if hit != 0 {
		t.Fatalf("hit peg %d, want 0", hit)
	}
	if math.Abs(b.Position.X-(100+minDist)) > 1e-9 || math.Abs(b.Position.Y-100) > 1e-9 {
		t.Errorf("position = %+v, want (%v, 100)", b.Position, 100+minDist)
	}
	if math.Abs(b.Velocity.X-cfg.KickSpeed) > 1e-9 || math.Abs(b.Velocity.Y) > 1e-9 {
		t.Errorf("velocity = %+v, want (%v, 0)", b.Velocity, cfg.KickSpeed)
	}
}

func TestResolvePegsKickAlongNormal(t *testing.T) {
	cfg := classicConfig(t)
	pegs := []Peg{{X: 100, Y: 100}}
	b := Ball{Position: NewVec2(103, 97), Velocity: NewVec2(0, 5)}
	ResolvePegs(&b, pegs, cfg)

	d := b.Position.Minus(NewVec2(100, 100))
	if math.Abs(d.Magnitude()-(cfg.BallRadius+cfg.PegRadius)) > 1e-9 {
		t.Errorf("ball not on the contact boundary: distance %v", d.Magnitude())
	}
	if math.Abs(b.Velocity.Magnitude()-cfg.KickSpeed) > 1e-9 {
		t.Errorf("kick speed = %v, want %v", b.Velocity.Magnitude(), cfg.KickSpeed)
	}
	if b.Velocity.X <= 0 || b.Velocity.Y >= 0 {
		t.Errorf("velocity %+v does not point away from the peg", b.Velocity)
	}
}

func TestResolvePegsNoOverlap(t *testing.T) {
	cfg := classicConfig(t)
	b := Ball{Position: NewVec2(200, 200), Velocity: NewVec2(1, 1)}
	if hit := ResolvePegs(&b, []Peg{{X: 100, Y: 100}}, cfg); hit != -1 {
		t.Errorf("hit = %d, want -1", hit)
	}
	if b.Velocity != NewVec2(1, 1) {
		t.Errorf("velocity changed without a collision")
	}
}

func TestResolveCollisionsKeepsBallOnCanvas(t *testing.T) {
	cfg := classicConfig(t)
	// A peg hugging the left wall pushes the ball out of bounds; the clamp
	// brings it back.
	board := &Board{Config: cfg, Pegs: []Peg{{X: 6, Y: 100}}}
	b := Ball{Position: NewVec2(5, 100), Velocity: NewVec2(-1, 0)}
	ResolveCollisions(&b, board)
	if b.Position.X < cfg.BallRadius || b.Position.X > cfg.Width-cfg.BallRadius {
		t.Errorf("x = %v outside [%v, %v]", b.Position.X, cfg.BallRadius, cfg.Width-cfg.BallRadius)
	}
}
