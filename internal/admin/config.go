package admin

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/playpool/plinko/internal/config"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/models"
)

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(ctx context.Context, db *sqlx.DB) ([]models.RuntimeConfig, error) {
	configs := []models.RuntimeConfig{}
	err := db.SelectContext(ctx, &configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config value
func GetRuntimeConfigValue(ctx context.Context, db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.GetContext(ctx, &cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateValue checks value against the declared type and the key's range.
func ValidateValue(key, valueType, value string) error {
	switch valueType {
	case "int":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		switch key {
		case "max_concurrent_balls", "tick_rate":
			if v < 1 {
				return fmt.Errorf("%s must be at least 1", key)
			}
		case "min_bet", "max_bet":
			if v < 0 {
				return fmt.Errorf("%s must not be negative", key)
			}
		}
	case "float":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", key)
		}
		if key == "payout_variance_bound" && (v < 0 || v > game.MaxPayoutVarianceBound) {
			return fmt.Errorf("%s must be between 0 and %g", key, game.MaxPayoutVarianceBound)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue updates a single runtime config value
func UpdateRuntimeConfigValue(ctx context.Context, db *sqlx.DB, key, value, adminPhone string) error {
	existing, err := GetRuntimeConfigValue(ctx, db, key)
	if err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}
	if err := ValidateValue(key, existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, adminPhone, key)
	return err
}

// ApplyRuntimeConfig copies recognised overrides onto cfg and returns how
// many were applied.
func ApplyRuntimeConfig(configs []models.RuntimeConfig, cfg *config.Config) int {
	applied := 0
	for _, c := range configs {
		switch c.Key {
		case "max_concurrent_balls":
			if v, err := strconv.Atoi(c.Value); err == nil && v > 0 {
				cfg.MaxConcurrentBalls = v
				applied++
			}
		case "payout_variance_bound":
			if v, err := strconv.ParseFloat(c.Value, 64); err == nil && validVarianceBound(v) {
				cfg.PayoutVarianceBound = v
				applied++
			}
		case "min_bet":
			if v, err := strconv.Atoi(c.Value); err == nil && v >= 0 {
				cfg.MinBet = v
				applied++
			}
		case "max_bet":
			if v, err := strconv.Atoi(c.Value); err == nil && v >= 0 {
				cfg.MaxBet = v
				applied++
			}
		case "tick_rate":
			if v, err := strconv.Atoi(c.Value); err == nil && v > 0 {
				cfg.TickRate = v
				applied++
			}
		}
	}
	return applied
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to the Config struct
func ApplyRuntimeConfigToConfig(ctx context.Context, db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(ctx, db)
	if err != nil {
		return err
	}
	n := ApplyRuntimeConfig(configs, cfg)
	log.Printf("[CONFIG] Applied %d runtime config overrides from database", n)
	return nil
}

func validVarianceBound(v float64) bool {
	return v >= 0 && v <= game.MaxPayoutVarianceBound
}

// EngineOptions turns the effective config into engine options.
func EngineOptions(cfg *config.Config) game.ManagerOptions {
	opts := game.ManagerOptions{
		TickRate:           cfg.TickRate,
		MaxConcurrentBalls: cfg.MaxConcurrentBalls,
		Limits: game.SessionLimits{
			MinBet: int64(cfg.MinBet),
			MaxBet: int64(cfg.MaxBet),
		},
		FairMode:      cfg.FairMode,
		LandingBuffer: cfg.LandingBuffer,
	}
	if validVarianceBound(cfg.PayoutVarianceBound) {
		bound := cfg.PayoutVarianceBound
		opts.PayoutVarianceBound = &bound
	}
	return opts
}
