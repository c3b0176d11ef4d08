package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const migrationsTable = "schema_migrations_plinko"

// RunMigrations applies the SQL files in dir with the postgres driver. A
// database that already has the drop_history table but no migrate metadata
// is baselined to the newest file first.
func RunMigrations(databaseURL, dir string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if dir == "" {
		dir = "migrations"
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if baseline, err := needsBaseline(sqlDB); err == nil && baseline {
		latest := LatestVersion(dir)
		if latest > 0 {
			log.Printf("[MIGRATE] Baseline DB to version %d (existing schema present)", latest)
			if ferr := m.Force(int(latest)); ferr != nil {
				log.Printf("[MIGRATE] Force to version %d failed: %v", latest, ferr)
			}
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Printf("[MIGRATE] Schema at version %d (dirty=%v)", version, dirty)
	return nil
}

func needsBaseline(db *sql.DB) (bool, error) {
	var schemaExists, metaExists bool
	if err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name='drop_history')").Scan(&schemaExists); err != nil {
		return false, err
	}
	if !schemaExists {
		return false, nil
	}
	if err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", migrationsTable).Scan(&metaExists); err != nil {
		return false, err
	}
	return !metaExists, nil
}

var versionPrefix = regexp.MustCompile(`^0*([0-9]+)_.*\.up\.sql$`)

// LatestVersion returns the highest numeric prefix among the up migrations in dir.
func LatestVersion(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := versionPrefix.FindStringSubmatch(f.Name())
		if len(m) < 2 {
			continue
		}
		v, _ := strconv.ParseInt(m[1], 10, 64)
		if v > max {
			max = v
		}
	}
	return max
}
