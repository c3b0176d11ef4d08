package game

// Ball is one dropped ball. Balls never interact with each other.
type Ball struct {
	ID       uint64     `json:"id"`
	Position Vec2       `json:"position"`
	Velocity Vec2       `json:"velocity"`
	Status   BallStatus `json:"status"`
	Slot     int        `json:"slot"` // SlotUnset while in flight
	Bet      int64      `json:"bet"`
}

// Landed reports whether the ball has settled into a slot.
func (b *Ball) Landed() bool {
	return b.Status == StatusLanded
}

// newBall places a ball at the drop point with a small horizontal jitter.
func newBall(id uint64, bet int64, cfg BoardConfig, rng RandomSource) Ball {
	return Ball{
		ID:       id,
		Position: NewVec2(cfg.Width/2, cfg.DropHeight),
		Velocity: NewVec2(symmetric(rng.Float64(), cfg.JitterBound), 0),
		Status:   StatusInFlight,
		Slot:     SlotUnset,
		Bet:      bet,
	}
}
