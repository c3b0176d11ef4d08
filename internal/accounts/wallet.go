package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/game"
)

// ErrUnknownPlayer is returned when a player has no balance account.
var ErrUnknownPlayer = errors.New("unknown player")

// Ledger is the wallet seen by the API and settlement: the engine's Reserve
// plus payouts, admin grants and balance reads.
type Ledger interface {
	game.Wallet
	Credit(ctx context.Context, playerID int, amount int64, reference string) error
	Grant(ctx context.Context, playerID int, amount int64, reference string) error
	Balance(ctx context.Context, playerID int) (int64, error)
}

// PGWallet keeps balances in Postgres. Bets move player -> house, payouts and
// grants move house -> player, each as one account_transactions row.
type PGWallet struct {
	db *sqlx.DB

	mu      sync.Mutex
	houseID int
}

func NewPGWallet(db *sqlx.DB) *PGWallet {
	return &PGWallet{db: db}
}

func (w *PGWallet) house(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.houseID != 0 {
		return w.houseID, nil
	}
	acc, err := GetOrCreateAccount(ctx, w.db, AccountHouse, nil)
	if err != nil {
		return 0, fmt.Errorf("house account: %w", err)
	}
	w.houseID = acc.ID
	return w.houseID, nil
}

func (w *PGWallet) playerAccountID(ctx context.Context, tx *sqlx.Tx, playerID int) (int, error) {
	var id int
	err := tx.GetContext(ctx, &id, `SELECT id FROM accounts WHERE account_type=$1 AND owner_player_id=$2`, AccountPlayer, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}
	return id, err
}

func (w *PGWallet) move(ctx context.Context, playerID int, amount int64, toHouse bool, refType, ref, desc string) error {
	houseID, err := w.house(ctx)
	if err != nil {
		return err
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	playerAcc, err := w.playerAccountID(ctx, tx, playerID)
	if err != nil {
		return err
	}
	debit, credit := houseID, playerAcc
	if toHouse {
		debit, credit = playerAcc, houseID
	}
	if err := Transfer(ctx, tx, debit, credit, amount, refType, ref, desc); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			log.Printf("[ACCT] %s %s for player %d already applied, skipping", refType, ref, playerID)
			return nil
		}
		return err
	}
	return tx.Commit()
}

// Reserve debits the bet from the player before the ball is admitted.
func (w *PGWallet) Reserve(ctx context.Context, playerID int, amount int64, reference string) error {
	return w.move(ctx, playerID, amount, true, RefBet, reference, "plinko bet")
}

// Credit pays a landed ball out. Zero payouts are not recorded.
func (w *PGWallet) Credit(ctx context.Context, playerID int, amount int64, reference string) error {
	if amount <= 0 {
		return nil
	}
	return w.move(ctx, playerID, amount, false, RefPayout, reference, "plinko payout")
}

// Grant adds credits from the house, used by admins.
func (w *PGWallet) Grant(ctx context.Context, playerID int, amount int64, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	return w.move(ctx, playerID, amount, false, RefGrant, reference, "admin grant")
}

func (w *PGWallet) Balance(ctx context.Context, playerID int) (int64, error) {
	var balance int64
	err := w.db.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE account_type=$1 AND owner_player_id=$2`, AccountPlayer, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}
	return balance, err
}

// MemoryWallet is an in-process Ledger for development and tests. Unknown
// players are opened with the starting balance on first use.
type MemoryWallet struct {
	mu       sync.Mutex
	balances map[int]int64
	applied  map[string]bool
	starting int64
}

func NewMemoryWallet(startingBalance int64) *MemoryWallet {
	return &MemoryWallet{
		balances: make(map[int]int64),
		applied:  make(map[string]bool),
		starting: startingBalance,
	}
}

func (w *MemoryWallet) ensureLocked(playerID int) {
	if _, ok := w.balances[playerID]; !ok {
		w.balances[playerID] = w.starting
	}
}

func (w *MemoryWallet) Reserve(_ context.Context, playerID int, amount int64, reference string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLocked(playerID)
	if w.applied[RefBet+":"+reference] {
		return nil
	}
	if w.balances[playerID] < amount {
		return fmt.Errorf("%w: balance %d, bet %d", game.ErrInsufficientBalance, w.balances[playerID], amount)
	}
	w.balances[playerID] -= amount
	w.applied[RefBet+":"+reference] = true
	return nil
}

func (w *MemoryWallet) credit(playerID int, amount int64, key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLocked(playerID)
	if w.applied[key] {
		return
	}
	w.balances[playerID] += amount
	w.applied[key] = true
}

func (w *MemoryWallet) Credit(_ context.Context, playerID int, amount int64, reference string) error {
	if amount > 0 {
		w.credit(playerID, amount, RefPayout+":"+reference)
	}
	return nil
}

func (w *MemoryWallet) Grant(_ context.Context, playerID int, amount int64, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	w.credit(playerID, amount, RefGrant+":"+reference)
	return nil
}

func (w *MemoryWallet) Balance(_ context.Context, playerID int) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLocked(playerID)
	return w.balances[playerID], nil
}
