package game

import (
	"math"

	"github.com/shopspring/decimal"
)

// PayoutResult is produced once per landed ball and handed to settlement.
type PayoutResult struct {
	Slot           int     `json:"slot"`
	BaseMultiplier float64 `json:"base_multiplier"`
	Variance       float64 `json:"variance"`
	Multiplier     float64 `json:"multiplier"`
	Payout         int64   `json:"payout"`
}

// SlotIndex maps a horizontal position to a slot, clamped to the board.
func SlotIndex(x float64, cfg BoardConfig) int {
	slot := int(math.Floor(x / cfg.Width * float64(cfg.SlotCount)))
	if slot < 0 {
		return 0
	}
	if slot > cfg.SlotCount-1 {
		return cfg.SlotCount - 1
	}
	return slot
}

var maxPayout = decimal.NewFromInt(math.MaxInt64)

// ComputePayout applies variance to the base multiplier, floors the result at
// zero and rounds bet*multiplier half away from zero. A non-finite multiplier
// pays nothing and the payout saturates at MaxInt64.
func ComputePayout(bet int64, base, variance float64) (float64, int64) {
	multiplier := math.Max(0, base+variance)
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return 0, 0
	}
	amount := decimal.NewFromInt(bet).
		Mul(decimal.NewFromFloat(multiplier)).
		Round(0)
	if amount.GreaterThan(maxPayout) {
		return multiplier, math.MaxInt64
	}
	payout := amount.IntPart()
	if payout < 0 {
		payout = 0
	}
	return multiplier, payout
}

// ResolveLanding settles the ball if its lower edge reached the landing line.
// The ball becomes Landed, its y snaps to the landing line and one variance
// draw is taken from rng.
func ResolveLanding(b *Ball, cfg BoardConfig, rng RandomSource) (PayoutResult, bool) {
	if b.Landed() || b.Position.Y+cfg.BallRadius < cfg.LandingLine() {
		return PayoutResult{}, false
	}

	slot := SlotIndex(b.Position.X, cfg)
	base := cfg.SlotMultipliers[slot]
	variance := symmetric(rng.Float64(), cfg.PayoutVarianceBound)
	multiplier, payout := ComputePayout(b.Bet, base, variance)

	b.Status = StatusLanded
	b.Slot = slot
	b.Position.Y = cfg.LandingLine()
	b.Velocity = Vec2{}

	return PayoutResult{
		Slot:           slot,
		BaseMultiplier: base,
		Variance:       variance,
		Multiplier:     multiplier,
		Payout:         payout,
	}, true
}
