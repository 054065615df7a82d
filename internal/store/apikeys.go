package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// HashAPIKey is the canonical transformation of a presented key before any
// lookup: only SHA-256 hashes are ever stored or compared.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// CreateAPIKey stores the hash of a raw key for a user. The raw key is never
// persisted.
func (s *Store) CreateAPIKey(ctx context.Context, userID, rawKey, label string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, label, created_at) VALUES (?, ?, ?, ?)`,
		HashAPIKey(rawKey), userID, label, fmtTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// UserForAPIKey resolves a presented raw key to its owning user id.
// ErrNotFound covers both unknown and malformed keys; callers surface a
// uniform 401 either way.
func (s *Store) UserForAPIKey(ctx context.Context, rawKey string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM api_keys WHERE key_hash = ?`, HashAPIKey(rawKey)).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup api key: %w", err)
	}
	return userID, nil
}
