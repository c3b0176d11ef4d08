package game

// BallView is the render-facing view of a ball.
type BallView struct {
	ID     uint64     `json:"id"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Radius float64    `json:"radius"`
	Status BallStatus `json:"status"`
	Slot   int        `json:"slot"`
}

// Snapshot is everything a renderer needs to draw one tick. The engine never
// reads anything back from it.
type Snapshot struct {
	SessionID       string        `json:"session_id"`
	Tick            uint64        `json:"tick"`
	Status          SessionStatus `json:"status"`
	Width           float64       `json:"width"`
	Height          float64       `json:"height"`
	PegRadius       float64       `json:"peg_radius"`
	Pegs            []Peg         `json:"pegs"`
	Balls           []BallView    `json:"balls"`
	Slots           []Slot        `json:"slots"`
	Wagered         int64         `json:"wagered"`
	SessionWinnings int64         `json:"session_winnings"`
}

// SnapshotSink receives render snapshots. Implementations must not block.
type SnapshotSink interface {
	PublishSnapshot(sessionID string, snap Snapshot)
}

// Snapshot captures the current state of the session for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.board.Config
	balls := make([]BallView, 0, s.store.Len())
	for _, b := range s.store.state.Balls {
		balls = append(balls, BallView{
			ID:     b.ID,
			X:      b.Position.X,
			Y:      b.Position.Y,
			Radius: cfg.BallRadius,
			Status: b.Status,
			Slot:   b.Slot,
		})
	}

	return Snapshot{
		SessionID:       s.ID,
		Tick:            s.store.Tick(),
		Status:          s.status,
		Width:           cfg.Width,
		Height:          cfg.Height,
		PegRadius:       cfg.PegRadius,
		Pegs:            s.board.Pegs,
		Balls:           balls,
		Slots:           s.board.Slots,
		Wagered:         s.wagered,
		SessionWinnings: s.winnings,
	}
}
