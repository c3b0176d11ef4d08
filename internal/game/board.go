package game

import (
	"fmt"
	"math"
	"strconv"
)

// BoardConfig holds the immutable parameters of one board: geometry, physics
// tuning and the payout table. It is created once per session.
type BoardConfig struct {
	Name                string    `json:"name" yaml:"name"`
	Width               float64   `json:"width" yaml:"width"`
	Height              float64   `json:"height" yaml:"height"`
	Rows                int       `json:"rows" yaml:"rows"`
	Columns             int       `json:"columns" yaml:"columns"`
	RowSpacing          float64   `json:"row_spacing" yaml:"row_spacing"`
	PegStartY           float64   `json:"peg_start_y" yaml:"peg_start_y"`
	PegRadius           float64   `json:"peg_radius" yaml:"peg_radius"`
	BallRadius          float64   `json:"ball_radius" yaml:"ball_radius"`
	Gravity             float64   `json:"gravity" yaml:"gravity"`
	BounceDamping       float64   `json:"bounce_damping" yaml:"bounce_damping"`
	Friction            float64   `json:"friction" yaml:"friction"`
	KickSpeed           float64   `json:"kick_speed" yaml:"kick_speed"`
	DropHeight          float64   `json:"drop_height" yaml:"drop_height"`
	SlotCount           int       `json:"slot_count" yaml:"slot_count"`
	SlotMultipliers     []float64 `json:"slot_multipliers" yaml:"slot_multipliers"`
	LandingLineHeight   float64   `json:"landing_line_height" yaml:"landing_line_height"`
	MaxConcurrentBalls  int       `json:"max_concurrent_balls" yaml:"max_concurrent_balls"`
	PayoutVarianceBound float64   `json:"payout_variance_bound" yaml:"payout_variance_bound"`
	JitterBound         float64   `json:"jitter_bound" yaml:"jitter_bound"`
}

// Validate reports the first parameter that would make the simulation ill-defined.
func (c BoardConfig) Validate() error {
	if name, ok := c.nonFinite(); ok {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidBoard, name)
	}
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidBoard)
	case c.Rows < 0 || c.Columns < 0:
		return fmt.Errorf("%w: rows and columns must not be negative", ErrInvalidBoard)
	case c.Rows > 0 && c.Columns < 1:
		return fmt.Errorf("%w: a board with peg rows needs at least one column", ErrInvalidBoard)
	case c.BallRadius <= 0 || c.PegRadius < 0:
		return fmt.Errorf("%w: ball radius must be positive", ErrInvalidBoard)
	case 2*c.BallRadius > c.Width:
		return fmt.Errorf("%w: ball wider than board", ErrInvalidBoard)
	case c.Friction <= 0 || c.Friction > 1:
		return fmt.Errorf("%w: friction must be in (0, 1]", ErrInvalidBoard)
	case c.BounceDamping < 0 || c.BounceDamping > 1:
		return fmt.Errorf("%w: bounce damping must be in [0, 1]", ErrInvalidBoard)
	case c.SlotCount < 1:
		return fmt.Errorf("%w: slot count must be at least 1", ErrInvalidBoard)
	case len(c.SlotMultipliers) != c.SlotCount:
		return fmt.Errorf("%w: %d multipliers for %d slots", ErrInvalidBoard, len(c.SlotMultipliers), c.SlotCount)
	case c.LandingLineHeight < 0 || c.LandingLineHeight >= c.Height:
		return fmt.Errorf("%w: landing line must lie inside the board", ErrInvalidBoard)
	case c.DropHeight < 0 || c.DropHeight > c.Height:
		return fmt.Errorf("%w: drop height must lie inside the board", ErrInvalidBoard)
	case c.MaxConcurrentBalls < 1:
		return fmt.Errorf("%w: max concurrent balls must be at least 1", ErrInvalidBoard)
	case c.PayoutVarianceBound < 0 || c.JitterBound < 0:
		return fmt.Errorf("%w: random bounds must not be negative", ErrInvalidBoard)
	case c.PayoutVarianceBound > MaxPayoutVarianceBound:
		return fmt.Errorf("%w: payout variance bound above %g", ErrInvalidBoard, MaxPayoutVarianceBound)
	}
	for i, m := range c.SlotMultipliers {
		if m < 0 || m > MaxSlotMultiplier {
			return fmt.Errorf("%w: multiplier %d must be in [0, %g]", ErrInvalidBoard, i, MaxSlotMultiplier)
		}
	}
	return nil
}

// nonFinite returns the first float parameter that is NaN or infinite.
func (c BoardConfig) nonFinite() (string, bool) {
	fields := []struct {
		name string
		v    float64
	}{
		{"width", c.Width},
		{"height", c.Height},
		{"row_spacing", c.RowSpacing},
		{"peg_start_y", c.PegStartY},
		{"peg_radius", c.PegRadius},
		{"ball_radius", c.BallRadius},
		{"gravity", c.Gravity},
		{"bounce_damping", c.BounceDamping},
		{"friction", c.Friction},
		{"kick_speed", c.KickSpeed},
		{"drop_height", c.DropHeight},
		{"landing_line_height", c.LandingLineHeight},
		{"payout_variance_bound", c.PayoutVarianceBound},
		{"jitter_bound", c.JitterBound},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return f.name, true
		}
	}
	for i, m := range c.SlotMultipliers {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Sprintf("slot_multipliers[%d]", i), true
		}
	}
	return "", false
}

// LandingLine is the y coordinate a ball's lower edge must reach to settle.
func (c BoardConfig) LandingLine() float64 {
	return c.Height - c.LandingLineHeight
}

// PegSpacing is the horizontal distance between neighbouring pegs in a row.
func (c BoardConfig) PegSpacing() float64 {
	return c.Width / float64(c.Columns+1)
}

// SlotWidth is the width of a single payout slot.
func (c BoardConfig) SlotWidth() float64 {
	return c.Width / float64(c.SlotCount)
}

// Peg is a static circular obstacle. Pegs are owned by the Board.
type Peg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Slot describes one payout compartment at the bottom of the board.
type Slot struct {
	Index      int     `json:"index"`
	Left       float64 `json:"left"`
	Right      float64 `json:"right"`
	Multiplier float64 `json:"multiplier"`
	Label      string  `json:"label"`
}

// Board is the read-only geometry derived from a BoardConfig.
type Board struct {
	Config BoardConfig
	Pegs   []Peg
	Slots  []Slot
}

// NewBoard validates the config and derives peg and slot geometry.
func NewBoard(cfg BoardConfig) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SlotMultipliers = append([]float64(nil), cfg.SlotMultipliers...)
	return &Board{
		Config: cfg,
		Pegs:   GeneratePegs(cfg),
		Slots:  GenerateSlots(cfg),
	}, nil
}

// GeneratePegs lays out the row-staggered lattice. Row r holds
// columns + (r mod 2) pegs; odd rows shift right by half the spacing.
// The result depends only on cfg.
func GeneratePegs(cfg BoardConfig) []Peg {
	if cfg.Rows <= 0 || cfg.Columns <= 0 {
		return []Peg{}
	}
	spacing := cfg.PegSpacing()
	pegs := make([]Peg, 0, cfg.Rows*cfg.Columns+cfg.Rows/2)
	for row := 0; row < cfg.Rows; row++ {
		count := cfg.Columns + row%2
		offset := 0.0
		if row%2 == 1 {
			offset = spacing / 2
		}
		y := cfg.PegStartY + float64(row)*cfg.RowSpacing
		for col := 0; col < count; col++ {
			pegs = append(pegs, Peg{
				X: offset + (float64(col)+0.5)*spacing,
				Y: y,
			})
		}
	}
	return pegs
}

// GenerateSlots returns the slot boundaries and labels, left to right.
func GenerateSlots(cfg BoardConfig) []Slot {
	width := cfg.SlotWidth()
	slots := make([]Slot, cfg.SlotCount)
	for i := range slots {
		m := cfg.SlotMultipliers[i]
		slots[i] = Slot{
			Index:      i,
			Left:       float64(i) * width,
			Right:      float64(i+1) * width,
			Multiplier: m,
			Label:      strconv.FormatFloat(m, 'f', 1, 64) + "x",
		}
	}
	return slots
}
