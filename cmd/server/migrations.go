package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/ghiblify/avatar-api/db/migrations"
)

// gooseLogger bridges goose output into slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func setupGoose(logger *slog.Logger) error {
	goose.SetBaseFS(migrations.Files)
	goose.SetLogger(&gooseLogger{logger: logger.With("component", "migrations")})
	return goose.SetDialect("postgres")
}

// migrateUp applies pending migrations from the embedded filesystem. Called
// on every startup so a fresh database is usable without a separate step.
func migrateUp(db *sql.DB, logger *slog.Logger) error {
	if err := setupGoose(logger); err != nil {
		return fmt.Errorf("failed to configure migrations: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// runMigrationCommand executes an explicit migration command (up, down,
// status) and returns. Used by the -migrate flag.
func runMigrationCommand(db *sql.DB, command string, logger *slog.Logger) error {
	if err := setupGoose(logger); err != nil {
		return fmt.Errorf("failed to configure migrations: %w", err)
	}

	switch command {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "status":
		return goose.Status(db, ".")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
