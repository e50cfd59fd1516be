package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/errs"
)

// sqliteSettingsStore is the self-hosted alternative to the Firestore
// backend: one row holding the settings document as JSON.
type sqliteSettingsStore struct {
	db *sql.DB
}

func NewSQLiteSettingsStore(path string) (*sqliteSettingsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteSettingsStore{db: db}, nil
}

func (s *sqliteSettingsStore) Close() error {
	return s.db.Close()
}

func (s *sqliteSettingsStore) Get(ctx context.Context) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFoundError("settings not found")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to get settings", err)
	}

	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse stored settings", err)
	}
	return values, nil
}

func (s *sqliteSettingsStore) Set(ctx context.Context, values map[string]any) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to encode settings", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO settings (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(raw), time.Now().UTC())
	if err != nil {
		return errs.NewDatabaseError("write", "failed to store settings", err)
	}
	return nil
}
