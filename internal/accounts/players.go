package accounts

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/models"
)

// Players registers players and loads their profiles.
type Players interface {
	Create(ctx context.Context, displayName string) (*models.Player, error)
	Get(ctx context.Context, playerID int) (*models.Player, error)
}

// PGPlayers stores players in Postgres and funds new accounts with the
// configured starting balance.
type PGPlayers struct {
	db       *sqlx.DB
	ledger   Ledger
	starting int64
}

func NewPGPlayers(db *sqlx.DB, ledger Ledger, startingBalance int64) *PGPlayers {
	return &PGPlayers{db: db, ledger: ledger, starting: startingBalance}
}

func (p *PGPlayers) Create(ctx context.Context, displayName string) (*models.Player, error) {
	player, err := CreatePlayer(ctx, p.db, cleanName(displayName))
	if err != nil {
		return nil, err
	}
	if p.starting > 0 {
		if err := p.ledger.Grant(ctx, player.ID, p.starting, "signup:"+strconv.Itoa(player.ID)); err != nil {
			log.Printf("[ACCT] starting balance grant failed for player %d: %v", player.ID, err)
		}
	}
	return player, nil
}

func (p *PGPlayers) Get(ctx context.Context, playerID int) (*models.Player, error) {
	return GetPlayer(ctx, p.db, playerID)
}

// MemoryPlayers keeps players in process. Balances come from MemoryWallet,
// which opens every account with its starting balance.
type MemoryPlayers struct {
	mu      sync.Mutex
	next    int
	players map[int]models.Player
}

func NewMemoryPlayers() *MemoryPlayers {
	return &MemoryPlayers{players: make(map[int]models.Player)}
}

func (m *MemoryPlayers) Create(_ context.Context, displayName string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p := models.Player{ID: m.next, DisplayName: cleanName(displayName), CreatedAt: time.Now()}
	m.players[p.ID] = p
	return &p, nil
}

func (m *MemoryPlayers) Get(_ context.Context, playerID int) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}
	return &p, nil
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
