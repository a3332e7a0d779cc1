package data

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/voicerelay/voicerelay/internal/data/pgxutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded SQL migrations in lexical order. Applied
// versions are tracked in schema_migrations, so repeated calls are no-ops.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	logger := slog.Default().With("component", "migrations")
	for _, file := range files {
		version := strings.TrimSuffix(file, ".sql")

		var exists bool
		row := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version)
		if scanErr := row.Scan(&exists); scanErr != nil {
			return fmt.Errorf("check migration %s: %w", file, scanErr)
		}
		if exists {
			continue
		}

		body, readErr := migrationsFS.ReadFile("migrations/" + file)
		if readErr != nil {
			return fmt.Errorf("read migration %s: %w", file, readErr)
		}

		logger.InfoContext(ctx, "applying migration", "version", version)
		txErr := pgxutil.WithSQLTx(ctx, db, func(tx *sql.Tx) error {
			if _, execErr := tx.ExecContext(ctx, string(body)); execErr != nil {
				return fmt.Errorf("exec migration %s: %w", file, execErr)
			}
			if _, insErr := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version) VALUES ($1)`, version); insErr != nil {
				return fmt.Errorf("record migration %s: %w", file, insErr)
			}
			return nil
		})
		if txErr != nil {
			return txErr
		}
	}
	return nil
}
