package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const memoryPath = ":memory:"

// Open opens a SQLite database at the given path and runs migrations.
func Open(dbPath string) (*sql.DB, error) {
	// Write transactions read before they write, so they take the write
	// lock up front and wait on busy_timeout instead of failing on upgrade.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dbPath == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Connect opens the database, retrying up to attempts times with a fixed
// delay between tries.
func Connect(ctx context.Context, dbPath string, attempts int, delay time.Duration, logger *slog.Logger) (*sql.DB, error) {
	if attempts < 1 {
		attempts = 1
	}

	var db *sql.DB
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		db, err = Open(dbPath)
		if err != nil {
			logger.Warn("database connection failed",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", attempt, err)
	}

	logger.Info("database connected", "path", dbPath, "attempts", attempt)
	return db, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
