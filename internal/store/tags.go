package store

import (
	"context"
	"fmt"

	"github.com/viniruiz/dashgo/internal/models"
)

func (s *Store) CreateTag(ctx context.Context, t *models.Tag) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, color) VALUES (?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.Color)
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (s *Store) ListTags(ctx context.Context, userID string) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddTagToLead associates a tag with a lead. Re-adding an existing pair is a
// no-op, not an error: the (lead_id, tag_id) primary key plus OR IGNORE makes
// the operation idempotent.
func (s *Store) AddTagToLead(ctx context.Context, leadID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lead_tags (lead_id, tag_id) VALUES (?, ?)`, leadID, tagID)
	if err != nil {
		return fmt.Errorf("tag lead: %w", err)
	}
	return nil
}

func (s *Store) RemoveTagFromLead(ctx context.Context, leadID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM lead_tags WHERE lead_id = ? AND tag_id = ?`, leadID, tagID)
	if err != nil {
		return fmt.Errorf("untag lead: %w", err)
	}
	return nil
}

func (s *Store) TagsForLead(ctx context.Context, leadID string) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.color FROM tags t
		 JOIN lead_tags lt ON lt.tag_id = t.id
		 WHERE lt.lead_id = ? ORDER BY t.name`, leadID)
	if err != nil {
		return nil, fmt.Errorf("tags for lead: %w", err)
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
