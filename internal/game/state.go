package game

// BallStatus is the lifecycle state of a ball inside the engine.
type BallStatus string

const (
	StatusInFlight BallStatus = "IN_FLIGHT"
	StatusLanded   BallStatus = "LANDED"
)

// SessionStatus represents whether a session still admits drops.
type SessionStatus string

const (
	SessionOpen     SessionStatus = "OPEN"
	SessionFinished SessionStatus = "FINISHED"
	SessionClosed   SessionStatus = "CLOSED"
)
