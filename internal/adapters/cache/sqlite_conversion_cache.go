package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/obs"
	"swissgrid-converter/internal/ports"
)

// SQLite backed cache of remote conversions.
type SqliteConversionCache struct {
	DB *sql.DB
}

var _ ports.ConversionCache = (*SqliteConversionCache)(nil)

func NewSqliteConversionCache(db *sql.DB) *SqliteConversionCache {
	return &SqliteConversionCache{DB: db}
}

// Fetch cached conversions for the given input points.
func (s *SqliteConversionCache) GetMany(
	ctx context.Context,
	direction domain.Direction,
	points []domain.Point,
) (_ map[domain.Point]domain.Point, err error) {
	defer obs.Time(ctx, "conversion.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("conversion cache: db is nil")
	}

	if !validDirection(direction) {
		return nil, fmt.Errorf("get conversion cache: invalid direction %q", direction)
	}

	if len(points) == 0 {
		return map[domain.Point]domain.Point{}, nil
	}

	keys, byKey := uniqueKeys(points)

	ph := make([]string, 0, len(keys))
	args := make([]any, 0, 1+len(keys))
	args = append(args, string(direction))
	for _, k := range keys {
		ph = append(ph, "?")
		args = append(args, k)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
        point_key,
        out_e,
        out_n
    FROM conversion_cache
    WHERE direction = ?
        AND point_key IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get conversion cache: query conversion_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Point]domain.Point, len(keys))
	for rows.Next() {
		var key string
		var e, n float64
		if err := rows.Scan(&key, &e, &n); err != nil {
			return nil, fmt.Errorf("get conversion cache: scan rows: %w", err)
		}
		if p, ok := byKey[key]; ok {
			out[p] = domain.Point{E: e, N: n}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get conversion cache: row iteration: %w", err)
	}

	return out, nil
}

// Store input -> output conversions for one direction.
func (s *SqliteConversionCache) PutMany(
	ctx context.Context,
	direction domain.Direction,
	results map[domain.Point]domain.Point,
) error {
	if s.DB == nil {
		return errors.New("conversion cache: db is nil")
	}

	if !validDirection(direction) {
		return fmt.Errorf("insert conversion cache: invalid direction %q", direction)
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert conversion cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO conversion_cache (
        direction,
        point_key,
        out_e,
        out_n
    )
    VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("insert conversion cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for in, r := range results {
		key := pointKey(in)
		if _, err := stmt.ExecContext(ctx, string(direction), key, r.E, r.N); err != nil {
			return fmt.Errorf("insert conversion cache key=%q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert conversion cache commit: %w", err)
	}

	return nil
}
