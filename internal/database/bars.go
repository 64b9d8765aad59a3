package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stockcity/txf-bar-service/internal/models"
)

// CreateBar inserts a 1-minute bar, updating it if the (code, ts) key exists.
// Re-ingesting the same minute overwrites rather than duplicates.
func (db *DB) CreateBar(ctx context.Context, b *models.Bar) error {
	query := `
		INSERT INTO bars_1m (code, ts, open, high, low, close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
		RETURNING id
	`
	err := db.conn.QueryRowContext(ctx, query,
		b.Code, b.TS, b.Open, b.High, b.Low, b.Close, b.Volume, time.Now(),
	).Scan(&b.ID)

	if err != nil {
		return fmt.Errorf("failed to create bar: %w", err)
	}
	return nil
}

// CreateBarsBatch inserts multiple 1-minute bars in one transaction.
// Used by backfill jobs; upserts on (code, ts) like CreateBar.
func (db *DB) CreateBarsBatch(ctx context.Context, bars []*models.Bar) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars_1m (code, ts, open, high, low, close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, b.Code, b.TS, b.Open, b.High, b.Low, b.Close, b.Volume, now)
		if err != nil {
			return fmt.Errorf("failed to insert bar %s %s: %w", b.Code, b.TS.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBarsRange retrieves 1-minute bars for a code in [start, end), ordered by
// timestamp ascending. This is the raw-bar source the resample engine reads.
func (db *DB) GetBarsRange(ctx context.Context, code string, start, end time.Time) ([]models.Bar, error) {
	query := `
		SELECT id, code, ts, open, high, low, close, volume, created_at
		FROM bars_1m
		WHERE code = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, code, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		err := rows.Scan(&b.ID, &b.Code, &b.TS, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bars: %w", err)
	}
	return bars, nil
}

// GetLatestBar retrieves the most recent 1-minute bar for a code
func (db *DB) GetLatestBar(ctx context.Context, code string) (*models.Bar, error) {
	query := `
		SELECT id, code, ts, open, high, low, close, volume, created_at
		FROM bars_1m
		WHERE code = $1
		ORDER BY ts DESC
		LIMIT 1
	`
	var b models.Bar
	err := db.conn.QueryRowContext(ctx, query, code).Scan(
		&b.ID, &b.Code, &b.TS, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no bars found for %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest bar: %w", err)
	}
	return &b, nil
}

// BarExists checks whether a bar for (code, ts) is already stored
func (db *DB) BarExists(ctx context.Context, code string, ts time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bars_1m WHERE code = $1 AND ts = $2)`
	var exists bool
	err := db.conn.QueryRowContext(ctx, query, code, ts).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bar existence: %w", err)
	}
	return exists, nil
}

// DeleteBarsOlderThan removes 1-minute bars older than the given timestamp,
// returning the number deleted. Used by retention jobs.
func (db *DB) DeleteBarsOlderThan(ctx context.Context, ts time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM bars_1m WHERE ts < $1`, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old bars: %w", err)
	}
	return result.RowsAffected()
}
