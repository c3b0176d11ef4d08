package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playpool/plinko/internal/game"
)

// ListBoards returns the board presets with engine overrides applied.
func ListBoards(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		names := m.Presets().Names()
		boards := make([]gin.H, 0, len(names))
		for _, name := range names {
			b, err := m.BoardFor(name)
			if err != nil {
				continue
			}
			boards = append(boards, gin.H{
				"name":   name,
				"config": b.Config,
				"pegs":   len(b.Pegs),
				"slots":  b.Slots,
			})
		}
		c.JSON(http.StatusOK, gin.H{"boards": boards})
	}
}
