package game

import "errors"

// Admission errors are recoverable and reported to the caller of Drop.
var (
	ErrInvalidBetAmount    = errors.New("invalid bet amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMaxConcurrentBalls  = errors.New("max concurrent balls exceeded")
)

var (
	ErrSessionFinished = errors.New("session no longer accepts drops")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownBoard    = errors.New("unknown board")
	ErrInvalidBoard    = errors.New("invalid board config")
)

// ErrorCode maps an admission error to the code reported to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidBetAmount):
		return "InvalidBetAmount"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrMaxConcurrentBalls):
		return "MaxConcurrentBallsExceeded"
	case errors.Is(err, ErrSessionFinished):
		return "SessionFinished"
	case errors.Is(err, ErrSessionNotFound):
		return "SessionNotFound"
	default:
		return "InternalError"
	}
}
