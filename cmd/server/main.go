package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/admin"
	"github.com/playpool/plinko/internal/api"
	"github.com/playpool/plinko/internal/config"
	"github.com/playpool/plinko/internal/database"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/migrations"
	"github.com/playpool/plinko/internal/redis"
	"github.com/playpool/plinko/internal/ws"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wallet, history and players live in Postgres unless the memory backend is selected
	var (
		db      *sqlx.DB
		ledger  accounts.Ledger
		history accounts.History
		players accounts.Players
	)
	if cfg.WalletBackend == "memory" {
		log.Printf("[ACCT] Using in-memory wallet (starting balance %d)", cfg.StartingBalance)
		ledger = accounts.NewMemoryWallet(int64(cfg.StartingBalance))
		history = accounts.NewMemoryHistory()
		players = accounts.NewMemoryPlayers()
	} else {
		var err error
		db, err = database.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		if err := admin.ApplyRuntimeConfigToConfig(ctx, db, cfg); err != nil {
			log.Printf("[CONFIG] Runtime config not applied: %v", err)
		}

		wallet := accounts.NewPGWallet(db)
		ledger = wallet
		history = accounts.NewPGHistory(db)
		players = accounts.NewPGPlayers(db, wallet, int64(cfg.StartingBalance))
	}

	// Redis is optional: without it landings and closes are broadcast in-process
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	} else {
		log.Println("[REDIS] REDIS_URL not set; running without pub/sub")
	}

	presets, err := game.LoadPresets(cfg.BoardPresetsPath)
	if err != nil {
		log.Fatalf("Failed to load board presets: %v", err)
	}

	manager := game.NewManager(presets, ledger, admin.EngineOptions(cfg))
	hub := ws.NewHub()
	go hub.Run(ctx)
	manager.SetSnapshotSink(hub)
	manager.Start(ctx)

	settler := accounts.NewSettler(ledger, history, rdb)
	settler.Local = hub.BroadcastLanded
	settled := make(chan struct{})
	go func() {
		settler.Run(ctx, manager.Landings())
		close(settled)
	}()

	reaper := game.NewIdleReaper(manager, rdb, cfg)
	if rdb == nil {
		reaper.OnClosed = hub.BroadcastClosed
	}
	reaper.Start(ctx)

	ws.StartEventSubscriber(ctx, rdb, hub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		DB:      db,
		Manager: manager,
		Players: players,
		Ledger:  ledger,
		History: history,
		Reaper:  reaper,
		WS:      ws.NewServer(hub, manager, reaper),
	}, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting Plinko server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	// pay out landings the clocks flushed while stopping
	<-settled
}
