package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetSetting reads one per-user setting value (e.g. the configured sheet URL).
func (s *Store) GetSetting(ctx context.Context, userID, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE user_id = ? AND key = ?`, userID, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return v, nil
}

// PutSetting writes a per-user setting, replacing any previous value.
func (s *Store) PutSetting(ctx context.Context, userID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, key, value, fmtTime(time.Now()))
	if err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}
