package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/game"
)

// errorStatus maps engine and wallet errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidBetAmount):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrMaxConcurrentBalls):
		return http.StatusTooManyRequests
	case errors.Is(err, game.ErrSessionFinished):
		return http.StatusConflict
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, accounts.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, game.ErrUnknownBoard), errors.Is(err, game.ErrInvalidBoard):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	code := game.ErrorCode(err)
	switch {
	case errors.Is(err, accounts.ErrUnknownPlayer):
		code = "UnknownPlayer"
	case errors.Is(err, game.ErrUnknownBoard):
		code = "UnknownBoard"
	case errors.Is(err, game.ErrInvalidBoard):
		code = "InvalidBoard"
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

// playerIDParam reads the :id route parameter as a player id.
func playerIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return 0, false
	}
	return id, true
}
