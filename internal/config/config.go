package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	MigrateOnStart bool
	MigrationsDir  string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Engine
	TickRate            int
	BoardPresetsPath    string
	MaxConcurrentBalls  int     // 0 keeps the board preset value
	PayoutVarianceBound float64 // negative keeps the board preset value
	FairMode            bool
	LandingBuffer       int

	// Bets
	MinBet int
	MaxBet int

	// Wallet
	WalletBackend   string // "postgres" or "memory"
	StartingBalance int    // granted to every new player

	// Sessions
	SessionIdleSeconds     int
	IdleWorkerPollInterval int
	HistoryLimit           int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/plinko?sslmode=disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""), // empty runs without pub/sub

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Engine
		TickRate:            getEnvInt("TICK_RATE", 60),
		BoardPresetsPath:    getEnv("BOARD_PRESETS_PATH", ""),
		MaxConcurrentBalls:  getEnvInt("MAX_CONCURRENT_BALLS", 0),
		PayoutVarianceBound: getEnvFloat("PAYOUT_VARIANCE_BOUND", -1),
		FairMode:            getEnvBool("FAIR_MODE", false),
		LandingBuffer:       getEnvInt("LANDING_BUFFER", 256),

		// Bets
		MinBet: getEnvInt("MIN_BET", 1),
		MaxBet: getEnvInt("MAX_BET", 0),

		// Wallet
		WalletBackend:   getEnv("WALLET_BACKEND", "postgres"),
		StartingBalance: getEnvInt("STARTING_BALANCE", 1000),

		// Sessions
		SessionIdleSeconds:     getEnvInt("SESSION_IDLE_SECONDS", 300),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_SECONDS", 5),
		HistoryLimit:           getEnvInt("HISTORY_LIMIT", 50),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
