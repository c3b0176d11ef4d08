package game

// State is the whole per-session simulation state. Balls are kept in
// creation order so that landings within a tick are emitted deterministically.
type State struct {
	Tick  uint64 `json:"tick"`
	Balls []Ball `json:"balls"`
}

// Landing is a ball that settled during a Step.
type Landing struct {
	BallID uint64 `json:"ball_id"`
	Bet    int64  `json:"bet"`
	Tick   uint64 `json:"tick"`
	PayoutResult
}

// Step advances every in-flight ball by one tick and returns the next state
// along with the balls that landed in it. Balls that had already landed
// before this tick are retired (left out of the next state). The input state
// is not modified.
func Step(s State, board *Board, rng RandomSource) (State, []Landing) {
	next := State{Tick: s.Tick + 1, Balls: make([]Ball, 0, len(s.Balls))}
	var landings []Landing

	for _, b := range s.Balls {
		if b.Landed() {
			continue
		}
		Integrate(&b, board.Config)
		ResolveCollisions(&b, board)
		if res, ok := ResolveLanding(&b, board.Config, rng); ok {
			landings = append(landings, Landing{
				BallID:       b.ID,
				Bet:          b.Bet,
				Tick:         next.Tick,
				PayoutResult: res,
			})
		}
		next.Balls = append(next.Balls, b)
	}
	return next, landings
}

// InFlight counts balls that have not landed yet.
func (s State) InFlight() int {
	n := 0
	for i := range s.Balls {
		if !s.Balls[i].Landed() {
			n++
		}
	}
	return n
}
