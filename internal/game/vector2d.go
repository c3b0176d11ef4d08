package game

import "math"

// Vec2 is a 2D vector in board pixel space (x grows right, y grows down).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromAngle returns a vector of the given magnitude pointing along angle (radians).
func FromAngle(angle, magnitude float64) Vec2 {
	return Vec2{X: math.Cos(angle) * magnitude, Y: math.Sin(angle) * magnitude}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Angle returns atan2(y, x).
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Times(1.0 / m)
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
