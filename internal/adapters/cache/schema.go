package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the conversion cache table.
// The DDL is valid for both SQLite and PostgreSQL.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createConversionCacheQuery := `
	CREATE TABLE IF NOT EXISTS conversion_cache (
        direction TEXT NOT NULL,
        point_key TEXT NOT NULL,
        out_e DOUBLE PRECISION NOT NULL,
        out_n DOUBLE PRECISION NOT NULL,
        PRIMARY KEY (direction, point_key)
    );
	`

	statements := []string{
		createConversionCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
