package accounts

import (
	"context"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/models"
)

// History stores settled drops and keeps the player's lifetime totals.
type History interface {
	RecordDrop(ctx context.Context, ev game.LandingEvent) error
	ListDrops(ctx context.Context, playerID, limit int) ([]models.DropRecord, error)
	Totals(ctx context.Context, playerID int) (drops int, wagered, winnings int64, err error)
}

type PGHistory struct {
	db *sqlx.DB
}

func NewPGHistory(db *sqlx.DB) *PGHistory {
	return &PGHistory{db: db}
}

// RecordDrop inserts the drop row and bumps the player totals in one
// transaction. A repeated (session, ball) pair is ignored.
func (h *PGHistory) RecordDrop(ctx context.Context, ev game.LandingEvent) error {
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO drop_history (session_id, player_id, ball_id, bet_amount, slot, base_multiplier, variance, multiplier, payout, landed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (session_id, ball_id) DO NOTHING
	`, ev.SessionID, ev.PlayerID, int64(ev.BallID), ev.Bet, ev.Slot, ev.BaseMultiplier, ev.Variance, ev.Multiplier, ev.Payout, ev.LandedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE players SET total_drops = total_drops + 1,
			total_wagered = total_wagered + $1,
			total_winnings = total_winnings + $2,
			last_active = NOW()
		WHERE id = $3
	`, ev.Bet, ev.Payout, ev.PlayerID); err != nil {
		return err
	}
	return tx.Commit()
}

func (h *PGHistory) ListDrops(ctx context.Context, playerID, limit int) ([]models.DropRecord, error) {
	drops := []models.DropRecord{}
	err := h.db.SelectContext(ctx, &drops, `
		SELECT id, session_id, player_id, ball_id, bet_amount, slot, base_multiplier, variance, multiplier, payout, landed_at
		FROM drop_history
		WHERE player_id = $1
		ORDER BY landed_at DESC, id DESC
		LIMIT $2
	`, playerID, limit)
	return drops, err
}

func (h *PGHistory) Totals(ctx context.Context, playerID int) (int, int64, int64, error) {
	p, err := GetPlayer(ctx, h.db, playerID)
	if err != nil {
		return 0, 0, 0, err
	}
	return p.TotalDrops, p.TotalWagered, p.TotalWinnings, nil
}

// MemoryHistory keeps drops in process, newest last.
type MemoryHistory struct {
	mu    sync.Mutex
	drops []models.DropRecord
	seen  map[string]bool
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{seen: make(map[string]bool)}
}

func (h *MemoryHistory) RecordDrop(_ context.Context, ev game.LandingEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := ev.SessionID + ":" + formatBall(ev.BallID)
	if h.seen[key] {
		return nil
	}
	h.seen[key] = true
	h.drops = append(h.drops, models.DropRecord{
		ID:             len(h.drops) + 1,
		SessionID:      ev.SessionID,
		PlayerID:       ev.PlayerID,
		BallID:         int64(ev.BallID),
		BetAmount:      ev.Bet,
		Slot:           ev.Slot,
		BaseMultiplier: ev.BaseMultiplier,
		Variance:       ev.Variance,
		Multiplier:     ev.Multiplier,
		Payout:         ev.Payout,
		LandedAt:       ev.LandedAt,
	})
	return nil
}

func (h *MemoryHistory) ListDrops(_ context.Context, playerID, limit int) ([]models.DropRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []models.DropRecord{}
	for _, d := range h.drops {
		if d.PlayerID == playerID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *MemoryHistory) Totals(_ context.Context, playerID int) (int, int64, int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var drops int
	var wagered, winnings int64
	for _, d := range h.drops {
		if d.PlayerID == playerID {
			drops++
			wagered += d.BetAmount
			winnings += d.Payout
		}
	}
	return drops, wagered, winnings, nil
}
