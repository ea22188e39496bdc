// Package cache keeps the signed-in user's goal list on the device.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid/v5"
	_ "modernc.org/sqlite"

	"github.com/and161185/goalkeeper/internal/migrate"
	"github.com/and161185/goalkeeper/internal/model"
)

// Key is the kv key under which a user's goal list is stored.
func Key(userID uuid.UUID) string { return "goals_" + userID.String() }

// SQLite stores each user's list as one JSON value in a kv table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the cache database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// one writer; sqlite serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrate.UpSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (c *SQLite) Close() error { return c.db.Close() }

// Get returns the stored list; ok is false when nothing was stored for the user.
func (c *SQLite) Get(ctx context.Context, userID uuid.UUID) ([]model.Goal, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, Key(userID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var gs []model.Goal
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return gs, true, nil
}

// Set replaces the stored list.
func (c *SQLite) Set(ctx context.Context, userID uuid.UUID, gs []model.Goal) error {
	if gs == nil {
		gs = []model.Goal{}
	}
	raw, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, Key(userID), string(raw))
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete drops the stored list of one user.
func (c *SQLite) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, Key(userID)); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
