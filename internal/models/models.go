package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Player represents a user in the system
type Player struct {
	ID            int          `db:"id" json:"id"`
	DisplayName   string       `db:"display_name" json:"display_name"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	TotalDrops    int          `db:"total_drops" json:"total_drops"`
	TotalWagered  int64        `db:"total_wagered" json:"total_wagered"`
	TotalWinnings int64        `db:"total_winnings" json:"total_winnings"`
	IsBlocked     bool         `db:"is_blocked" json:"is_blocked"`
	LastActive    sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// Account is a balance holder. Player accounts have an owner; the house
// account does not.
type Account struct {
	ID            int           `db:"id" json:"id"`
	AccountType   string        `db:"account_type" json:"account_type"`
	OwnerPlayerID sql.NullInt64 `db:"owner_player_id" json:"owner_player_id,omitempty"`
	Balance       int64         `db:"balance" json:"balance"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// AccountTransaction is one double-entry movement between two accounts
type AccountTransaction struct {
	ID              int       `db:"id" json:"id"`
	DebitAccountID  int       `db:"debit_account_id" json:"debit_account_id"`
	CreditAccountID int       `db:"credit_account_id" json:"credit_account_id"`
	Amount          int64     `db:"amount" json:"amount"`
	ReferenceType   string    `db:"reference_type" json:"reference_type"`
	Reference       string    `db:"reference" json:"reference"`
	Description     string    `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// DropRecord is the settled outcome of one ball
type DropRecord struct {
	ID             int       `db:"id" json:"id"`
	SessionID      string    `db:"session_id" json:"session_id"`
	PlayerID       int       `db:"player_id" json:"player_id"`
	BallID         int64     `db:"ball_id" json:"ball_id"`
	BetAmount      int64     `db:"bet_amount" json:"bet_amount"`
	Slot           int       `db:"slot" json:"slot"`
	BaseMultiplier float64   `db:"base_multiplier" json:"base_multiplier"`
	Variance       float64   `db:"variance" json:"variance"`
	Multiplier     float64   `db:"multiplier" json:"multiplier"`
	Payout         int64     `db:"payout" json:"payout"`
	LandedAt       time.Time `db:"landed_at" json:"landed_at"`
}

// RuntimeConfig is an admin-editable override row
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAccount is an operator allowed to use the admin API
type AdminAccount struct {
	Phone       string         `db:"phone" json:"phone"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one logged admin action
type AdminAudit struct {
	ID         int             `db:"id" json:"id"`
	AdminPhone string          `db:"admin_phone" json:"admin_phone"`
	IP         string          `db:"ip" json:"ip"`
	Route      string          `db:"route" json:"route"`
	Action     string          `db:"action" json:"action"`
	Details    json.RawMessage `db:"details" json:"details"`
	Success    bool            `db:"success" json:"success"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
