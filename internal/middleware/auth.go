package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playpool/plinko/internal/models"
)

// Context keys set by the auth middlewares.
const (
	CtxPlayerID  = "player_id"
	CtxSessionID = "session_id"
	CtxAdmin     = "admin"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims identify the player and session a token was issued for.
type SessionClaims struct {
	PlayerID  int
	SessionID string
	ExpiresAt time.Time
}

// IssueSessionToken signs an HS256 token for one play session.
func IssueSessionToken(secret string, playerID int, sessionID string, ttl time.Duration) (string, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"player_id":  playerID,
		"session_id": sessionID,
		"exp":        jwt.NewNumericDate(exp).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates the signature and expiry and extracts the claims.
func ParseSessionToken(secret, tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSessionToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSessionToken
	}
	playerIDf, ok := claims["player_id"].(float64)
	if !ok {
		return nil, ErrInvalidSessionToken
	}
	sessionID, ok := claims["session_id"].(string)
	if !ok || sessionID == "" {
		return nil, ErrInvalidSessionToken
	}
	out := &SessionClaims{PlayerID: int(playerIDf), SessionID: sessionID}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// browsers cannot set headers on websocket upgrades
	return c.Query("token")
}

// SessionAuth requires a session token matching the :id route parameter.
func SessionAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}
		claims, err := ParseSessionToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if id := c.Param("id"); id != "" && id != claims.SessionID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for another session"})
			return
		}
		c.Set(CtxPlayerID, claims.PlayerID)
		c.Set(CtxSessionID, claims.SessionID)
		c.Next()
	}
}

// AdminValidator checks admin credentials; admin.ValidateAdmin bound to a DB.
type AdminValidator func(ctx context.Context, phone, token, ip string) (*models.AdminAccount, error)

// AdminAuth requires X-Admin-Phone and X-Admin-Token headers.
func AdminAuth(validate AdminValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := strings.TrimSpace(c.GetHeader("X-Admin-Phone"))
		token := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if phone == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin credentials required"})
			return
		}
		acc, err := validate(c.Request.Context(), phone, token, c.ClientIP())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(CtxAdmin, acc)
		c.Next()
	}
}
