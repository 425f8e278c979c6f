// Package sqlite caches the last good candle window per instrument. The
// cache sits between the network cascade and the synthetic generator: when
// every live source fails, a recent real window beats a simulated one.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/qiuyin/AgentDesk/internal/models"
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS candle_windows (
    symbol TEXT NOT NULL,
    interval TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (symbol, interval)
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveWindow stores the latest good window for an instrument, replacing any
// previous snapshot.
func (s *Store) SaveWindow(ctx context.Context, symbol, interval string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	payload, err := json.Marshal(candles)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO candle_windows (symbol, interval, payload)
VALUES (?, ?, ?)
ON CONFLICT(symbol, interval) DO UPDATE SET
    payload=excluded.payload,
    updated_at=CURRENT_TIMESTAMP
`, symbol, interval, string(payload))
	if err != nil {
		return fmt.Errorf("save window: %w", err)
	}
	return nil
}

// LoadWindow returns the cached window for an instrument, or nil when none
// was ever stored.
func (s *Store) LoadWindow(ctx context.Context, symbol, interval string) ([]models.Candle, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
SELECT payload FROM candle_windows WHERE symbol = ? AND interval = ?
`, symbol, interval).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load window: %w", err)
	}

	var candles []models.Candle
	if err := json.Unmarshal([]byte(payload), &candles); err != nil {
		return nil, fmt.Errorf("decode window: %w", err)
	}
	return candles, nil
}
