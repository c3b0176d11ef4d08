package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playpool/plinko/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAdminNotFound = errors.New("admin account not found")
	ErrInvalidToken  = errors.New("invalid token")
	ErrIPNotAllowed  = errors.New("ip not allowed")
)

// GetAdminAccount retrieves an admin account by phone
func GetAdminAccount(ctx context.Context, db *sqlx.DB, phone string) (*models.AdminAccount, error) {
	var admin models.AdminAccount
	err := db.GetContext(ctx, &admin, `SELECT phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at FROM admin_accounts WHERE phone=$1`, phone)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// HashToken returns the bcrypt hash stored for an admin token.
func HashToken(plainToken string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hashed), nil
}

// VerifyAdminToken checks if the provided token matches the stored hash
func VerifyAdminToken(hashedToken, plainToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken)) == nil
}

// IPAllowed reports whether ip may use the account. An empty list allows any IP.
func IPAllowed(account *models.AdminAccount, ip string) bool {
	if len(account.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range account.AllowedIPs {
		if allowed == ip {
			return true
		}
	}
	return false
}

// CreateAdminAccount creates or replaces an admin account (used for seeding)
func CreateAdminAccount(ctx context.Context, db *sqlx.DB, phone, displayName, plainToken string, roles, allowedIPs []string) error {
	hashedToken, err := HashToken(plainToken)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO admin_accounts (phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (phone) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			allowed_ips = EXCLUDED.allowed_ips,
			updated_at = NOW()
	`, phone, displayName, hashedToken, pq.Array(roles), pq.Array(allowedIPs))

	return err
}

// ValidateAdmin validates the phone + token pair and the caller's IP.
func ValidateAdmin(ctx context.Context, db *sqlx.DB, phone, token, ip string) (*models.AdminAccount, error) {
	admin, err := GetAdminAccount(ctx, db, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ADMIN] No admin account found for phone: %s", phone)
			return nil, ErrAdminNotFound
		}
		log.Printf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyAdminToken(admin.TokenHash, token) {
		log.Printf("[ADMIN] Token verification failed for phone: %s", phone)
		return nil, ErrInvalidToken
	}
	if !IPAllowed(admin, ip) {
		log.Printf("[ADMIN] Rejected %s from ip %s", phone, ip)
		return nil, ErrIPNotAllowed
	}
	return admin, nil
}

// LogAdminAction records an admin action in the audit log
func LogAdminAction(ctx context.Context, db *sqlx.DB, adminPhone, ip, route, action string, details map[string]interface{}, success bool) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("[ADMIN] Failed to marshal audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO admin_audit (admin_phone, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, adminPhone, ip, route, action, detailsJSON, success)

	if err != nil {
		log.Printf("[ADMIN] Failed to log admin action: %v", err)
	}
	return err
}

// GetAdminAuditLogs retrieves recent admin audit logs with pagination
func GetAdminAuditLogs(ctx context.Context, db *sqlx.DB, limit, offset int) ([]models.AdminAudit, error) {
	logs := []models.AdminAudit{}
	err := db.SelectContext(ctx, &logs, `
		SELECT id, admin_phone, ip, route, action, details, success, created_at
		FROM admin_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}
