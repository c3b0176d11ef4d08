package game

import "fmt"

// BallStore holds the balls of one session and enforces the in-flight cap.
// It is not safe for concurrent use; the owning Session serializes access.
type BallStore struct {
	state         State
	nextID        uint64
	maxConcurrent int
	pending       int // admissions claimed but not spawned yet
}

// NewBallStore creates an empty store admitting at most maxConcurrent balls in flight.
func NewBallStore(maxConcurrent int) *BallStore {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrentBalls
	}
	return &BallStore{maxConcurrent: maxConcurrent, nextID: 1}
}

// Claim reserves room for one ball whose admission is still in progress
// (for example while the bet is being reserved).
func (s *BallStore) Claim() error {
	if s.state.InFlight()+s.pending >= s.maxConcurrent {
		return fmt.Errorf("%w: %d balls in flight", ErrMaxConcurrentBalls, s.maxConcurrent)
	}
	s.pending++
	return nil
}

// Unclaim gives back a claim whose admission failed.
func (s *BallStore) Unclaim() {
	if s.pending > 0 {
		s.pending--
	}
}

// SpawnClaimed turns a previous claim into a ball at the drop point.
func (s *BallStore) SpawnClaimed(bet int64, cfg BoardConfig, rng RandomSource) Ball {
	s.Unclaim()
	b := newBall(s.nextID, bet, cfg, rng)
	s.nextID++
	s.state.Balls = append(s.state.Balls, b)
	return b
}

// Spawn claims and spawns in one go.
func (s *BallStore) Spawn(bet int64, cfg BoardConfig, rng RandomSource) (Ball, error) {
	if err := s.Claim(); err != nil {
		return Ball{}, err
	}
	return s.SpawnClaimed(bet, cfg, rng), nil
}

// Remove discards a ball by id. It reports whether the ball was present.
func (s *BallStore) Remove(id uint64) bool {
	for i := range s.state.Balls {
		if s.state.Balls[i].ID == id {
			s.state.Balls = append(s.state.Balls[:i], s.state.Balls[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns a copy of the stored balls in creation order.
func (s *BallStore) Active() []Ball {
	return append([]Ball(nil), s.state.Balls...)
}

// Advance runs one Step over the stored state.
func (s *BallStore) Advance(board *Board, rng RandomSource) []Landing {
	next, landings := Step(s.state, board, rng)
	s.state = next
	return landings
}

func (s *BallStore) Tick() uint64       { return s.state.Tick }
func (s *BallStore) InFlight() int      { return s.state.InFlight() }
func (s *BallStore) Len() int           { return len(s.state.Balls) }
func (s *BallStore) Pending() int       { return s.pending }
func (s *BallStore) MaxConcurrent() int { return s.maxConcurrent }

// SetMaxConcurrent changes the cap for future admissions.
func (s *BallStore) SetMaxConcurrent(n int) {
	if n > 0 {
		s.maxConcurrent = n
	}
}
