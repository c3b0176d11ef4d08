package game

import "math"

// Integrate advances one ball by one tick: gravity on vy, friction on vx,
// then explicit Euler on position.
func Integrate(b *Ball, cfg BoardConfig) {
	b.Velocity.Y += cfg.Gravity
	b.Velocity.X *= cfg.Friction
	b.Position = b.Position.Plus(b.Velocity)
}

// ResolveCollisions applies wall then peg correction and finally clamps the
// ball inside the canvas. Returns the index of the peg that was hit, or -1.
func ResolveCollisions(b *Ball, board *Board) int {
	ResolveWalls(b, board.Config)
	hit := ResolvePegs(b, board.Pegs, board.Config)
	clampToBoard(b, board.Config)
	return hit
}

// ResolveWalls reflects the horizontal velocity off the side walls with damping.
func ResolveWalls(b *Ball, cfg BoardConfig) bool {
	r := cfg.BallRadius
	if b.Position.X-r < 0 {
		b.Position.X = r
		b.Velocity.X = math.Abs(b.Velocity.X) * cfg.BounceDamping
		return true
	}
	if b.Position.X+r > cfg.Width {
		b.Position.X = cfg.Width - r
		b.Velocity.X = -math.Abs(b.Velocity.X) * cfg.BounceDamping
		return true
	}
	return false
}

// ResolvePegs pushes an overlapping ball out to the contact boundary of the
// first overlapping peg in generation order and replaces its velocity with a
// fixed-speed kick along the contact normal. At most one peg is resolved per
// tick, even if several overlap.
func ResolvePegs(b *Ball, pegs []Peg, cfg BoardConfig) int {
	minDist := cfg.BallRadius + cfg.PegRadius
	for i, peg := range pegs {
		d := b.Position.Minus(NewVec2(peg.X, peg.Y))
		if d.Magnitude() >= minDist {
			continue
		}
		angle := d.Angle()
		b.Position = NewVec2(peg.X, peg.Y).Plus(FromAngle(angle, minDist))
		b.Velocity = FromAngle(angle, cfg.KickSpeed)
		return i
	}
	return -1
}

// clampToBoard absorbs floating point drift and peg pushes that would leave
// the ball outside the walls.
func clampToBoard(b *Ball, cfg BoardConfig) {
	r := cfg.BallRadius
	b.Position.X = clamp(b.Position.X, r, cfg.Width-r)
	b.Position.Y = clamp(b.Position.Y, 0, cfg.Height)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
