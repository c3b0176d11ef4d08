package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/models"
)

// account types
const (
	AccountPlayer = "player"
	AccountHouse  = "house"
)

// reference types recorded on account_transactions
const (
	RefBet    = "bet"
	RefPayout = "payout"
	RefGrant  = "grant"
)

// ErrDuplicateReference means a transfer with the same reference was already
// applied; callers treat it as success.
var ErrDuplicateReference = errors.New("transfer already applied")

const accountColumns = `id, account_type, owner_player_id, balance, created_at, updated_at`

// GetOrCreateAccount returns an account for the given owner and type, creating it if missing
func GetOrCreateAccount(ctx context.Context, db sqlx.ExtContext, accountType string, ownerPlayerID *int) (*models.Account, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	var a models.Account
	if ownerPlayerID == nil {
		// system account
		if err := sqlx.GetContext(ctx, db, &a, `SELECT `+accountColumns+` FROM accounts WHERE account_type=$1 AND owner_player_id IS NULL`, accountType); err == nil {
			return &a, nil
		}
		if err := sqlx.GetContext(ctx, db, &a, `INSERT INTO accounts (account_type, balance, created_at, updated_at) VALUES ($1, 0, NOW(), NOW()) RETURNING `+accountColumns, accountType); err != nil {
			return nil, err
		}
		return &a, nil
	}

	if err := sqlx.GetContext(ctx, db, &a, `SELECT `+accountColumns+` FROM accounts WHERE account_type=$1 AND owner_player_id=$2`, accountType, *ownerPlayerID); err == nil {
		return &a, nil
	}
	if err := sqlx.GetContext(ctx, db, &a, `INSERT INTO accounts (account_type, owner_player_id, balance, created_at, updated_at) VALUES ($1, $2, 0, NOW(), NOW()) RETURNING `+accountColumns, accountType, *ownerPlayerID); err != nil {
		return nil, err
	}
	return &a, nil
}

// Transfer performs a single debit/credit between accounts within an existing tx.
// It selects both accounts FOR UPDATE, checks the debited player balance,
// updates balances and inserts an account_transactions row.
func Transfer(ctx context.Context, tx *sqlx.Tx, debitAccountID, creditAccountID int, amount int64, referenceType, reference, description string) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	// Lock both accounts
	var locked []models.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id IN ($1,$2) ORDER BY id FOR UPDATE`
	if err := tx.SelectContext(ctx, &locked, query, debitAccountID, creditAccountID); err != nil {
		return err
	}

	var debitAcc, creditAcc *models.Account
	for i := range locked {
		if locked[i].ID == debitAccountID {
			debitAcc = &locked[i]
		}
		if locked[i].ID == creditAccountID {
			creditAcc = &locked[i]
		}
	}
	if debitAcc == nil || creditAcc == nil {
		return fmt.Errorf("account not found for transfer")
	}

	// Player accounts never go negative; the house may.
	if debitAcc.AccountType == AccountPlayer && debitAcc.Balance < amount {
		return fmt.Errorf("%w: account %d has %d, needs %d", game.ErrInsufficientBalance, debitAccountID, debitAcc.Balance, amount)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO account_transactions (debit_account_id, credit_account_id, amount, reference_type, reference, description, created_at) VALUES ($1,$2,$3,$4,$5,$6,NOW())`, debitAccountID, creditAccountID, amount, referenceType, reference, description); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s %s", ErrDuplicateReference, referenceType, reference)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance=balance-$1, updated_at=NOW() WHERE id=$2`, amount, debitAcc.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance=balance+$1, updated_at=NOW() WHERE id=$2`, amount, creditAcc.ID); err != nil {
		return err
	}

	log.Printf("[ACCT] Transfer completed: debit_acc=%d credit_acc=%d amount=%d ref=%s/%s desc=%s", debitAccountID, creditAccountID, amount, referenceType, reference, description)
	return nil
}

// CreatePlayer inserts a player row and its balance account.
func CreatePlayer(ctx context.Context, db *sqlx.DB, displayName string) (*models.Player, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var p models.Player
	if err := tx.GetContext(ctx, &p, `INSERT INTO players (display_name, created_at) VALUES ($1, NOW()) RETURNING id, display_name, created_at, total_drops, total_wagered, total_winnings, is_blocked, last_active`, displayName); err != nil {
		return nil, fmt.Errorf("insert player: %w", err)
	}
	if _, err := GetOrCreateAccount(ctx, tx, AccountPlayer, &p.ID); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Printf("[ACCT] Created player %d (%s)", p.ID, displayName)
	return &p, nil
}

// GetPlayer loads a player with lifetime totals.
func GetPlayer(ctx context.Context, db *sqlx.DB, playerID int) (*models.Player, error) {
	var p models.Player
	err := db.GetContext(ctx, &p, `SELECT id, display_name, created_at, total_drops, total_wagered, total_winnings, is_blocked, last_active FROM players WHERE id=$1`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
