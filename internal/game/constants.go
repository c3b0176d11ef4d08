package game

import "time"

// Engine defaults. Board presets override most of these per board.
const (
	DefaultTickRate           = 60  // ticks per second
	DefaultKickSpeed          = 4.0 // speed a ball leaves a peg with
	DefaultDropHeight         = 20.0
	DefaultPegStartY          = 60.0
	DefaultMaxConcurrentBalls = 10
	DefaultVarianceBound      = 0.2
	DefaultJitterBound        = 1.0
	DefaultMaxTicks           = 60 * 60 // SimulateDrop safety cap (one minute of play)

	// Upper limits accepted by BoardConfig.Validate.
	MaxPayoutVarianceBound = 10.0
	MaxSlotMultiplier      = 10000.0

	// ShutdownDrainTimeout bounds how long a stopping clock waits to hand
	// queued landings to settlement.
	ShutdownDrainTimeout = 2 * time.Second

	// SlotUnset marks a ball that has not landed yet.
	SlotUnset = -1
)
