package game

import (
	"errors"
	"fmt"
)

// ErrBallStuck is returned by SimulateDrop when a ball has not landed within
// the tick budget (for example a ball balanced exactly on a peg).
var ErrBallStuck = errors.New("ball did not land")

// DropResult is the outcome of a synchronous single-ball run.
type DropResult struct {
	Ticks  uint64 `json:"ticks"`
	Path   []Vec2 `json:"path,omitempty"`
	Landed Landing
}

// SimulateDrop steps one ball until it lands, without a clock. It draws from
// rng exactly as a live session would: jitter at spawn, variance at landing.
func SimulateDrop(board *Board, rng RandomSource, bet int64, maxTicks int, recordPath bool) (DropResult, error) {
	if bet <= 0 {
		return DropResult{}, fmt.Errorf("%w: %d", ErrInvalidBetAmount, bet)
	}
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}

	state := State{Balls: []Ball{newBall(1, bet, board.Config, rng)}}
	var res DropResult
	if recordPath {
		res.Path = append(res.Path, state.Balls[0].Position)
	}

	for i := 0; i < maxTicks; i++ {
		var landings []Landing
		state, landings = Step(state, board, rng)
		if recordPath {
			res.Path = append(res.Path, state.Balls[0].Position)
		}
		if len(landings) > 0 {
			res.Ticks = state.Tick
			res.Landed = landings[0]
			return res, nil
		}
	}
	b := state.Balls[0]
	return res, fmt.Errorf("%w after %d ticks (x=%.2f y=%.2f)", ErrBallStuck, maxTicks, b.Position.X, b.Position.Y)
}
