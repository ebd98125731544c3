package db

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate executes every .sql file in the provided filesystem against the
// pool, in lexical name order. Files are expected to be idempotent
// (CREATE ... IF NOT EXISTS) so the function is safe to run on every boot.
func Migrate(ctx context.Context, pool *pgxpool.Pool, files fs.FS) error {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return fmt.Errorf("db: read migrations: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}

		data, err := fs.ReadFile(files, e.Name())
		if err != nil {
			return fmt.Errorf("db: read %s: %w", e.Name(), err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("db: apply %s: %w", e.Name(), err)
		}
	}

	return nil
}
