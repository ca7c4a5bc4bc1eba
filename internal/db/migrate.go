package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"todo_webapp/internal/logger"
	"todo_webapp/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationNames returns the embedded migration files in apply order.
func MigrationNames() ([]string, error) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies every embedded migration. The files are idempotent, so
// running Migrate on an up-to-date schema is a no-op.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := MigrationNames()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, name := range names {
		b, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		logger.Debug("migration applied", "name", name)
	}
	return nil
}
