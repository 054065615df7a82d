package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viniruiz/dashgo/internal/models"
)

// CreateLead inserts the lead and its initial history row (from = none) in
// one transaction. The history row reuses the lead's created_at so backdated
// imports keep a consistent timeline.
func (s *Store) CreateLead(ctx context.Context, l *models.Lead, movedBy string) error {
	cf, err := marshalCustomFields(l.CustomFields)
	if err != nil {
		return err
	}
	return s.RunTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO leads (id, user_id, pipeline_id, stage_id, name, email, phone, company, origin,
				utm_source, utm_medium, utm_campaign, utm_term, utm_content,
				custom_fields, assigned_to, deal_value, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.UserID, l.PipelineID, l.StageID, l.Name, l.Email, l.Phone, l.Company, l.Origin,
			l.UTMSource, l.UTMMedium, l.UTMCampaign, l.UTMTerm, l.UTMContent,
			cf, l.AssignedTo, l.DealValue,
			fmtTime(l.CreatedAt), fmtTime(l.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}
		if l.StageID != nil {
			return insertHistory(ctx, tx, l.ID, nil, *l.StageID, l.CreatedAt, movedBy)
		}
		return nil
	})
}

func insertHistory(ctx context.Context, tx *sql.Tx, leadID string, from *string, to string, at time.Time, by string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stage_history (lead_id, from_stage_id, to_stage_id, moved_at, moved_by) VALUES (?, ?, ?, ?, ?)`,
		leadID, from, to, fmtTime(at), by)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

const leadColumns = `id, user_id, pipeline_id, stage_id, name, email, phone, company, origin,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content,
	custom_fields, assigned_to, deal_value, created_at, updated_at`

// GetLead fetches one lead scoped to its owner.
func (s *Store) GetLead(ctx context.Context, userID, id string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ? AND user_id = ?`, id, userID)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindLeadByEmail locates a lead by (user, pipeline, email); pipelineID may
// be empty to search across pipelines. Used by the webhook dedup policy and
// the check endpoint. Emails are matched case-insensitively.
func (s *Store) FindLeadByEmail(ctx context.Context, userID, pipelineID, email string) (*models.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = ? AND email = ? COLLATE NOCASE`
	args := []any{userID, email}
	if pipelineID != "" {
		q += ` AND pipeline_id = ?`
		args = append(args, pipelineID)
	}
	q += ` ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, q, args...)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LeadFilter narrows ListLeads. Zero values mean "no constraint".
type LeadFilter struct {
	PipelineID string
	StageID    string
	Origin     string
	Search     string // matches name or email, case-insensitive
	Limit      int
	Offset     int
}

func (s *Store) ListLeads(ctx context.Context, userID string, f LeadFilter) ([]models.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = ?`
	args := []any{userID}
	if f.PipelineID != "" {
		q += ` AND pipeline_id = ?`
		args = append(args, f.PipelineID)
	}
	if f.StageID != "" {
		q += ` AND stage_id = ?`
		args = append(args, f.StageID)
	}
	if f.Origin != "" {
		q += ` AND origin = ?`
		args = append(args, f.Origin)
	}
	if f.Search != "" {
		q += ` AND (name LIKE ? OR email LIKE ?)`
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLead rewrites the lead's mutable fields. Stage is NOT touched here;
// stage changes only happen through MoveLead so history stays complete.
func (s *Store) UpdateLead(ctx context.Context, l *models.Lead) error {
	cf, err := marshalCustomFields(l.CustomFields)
	if err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET name = ?, email = ?, phone = ?, company = ?, origin = ?,
			utm_source = ?, utm_medium = ?, utm_campaign = ?, utm_term = ?, utm_content = ?,
			custom_fields = ?, assigned_to = ?, deal_value = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		l.Name, l.Email, l.Phone, l.Company, l.Origin,
		l.UTMSource, l.UTMMedium, l.UTMCampaign, l.UTMTerm, l.UTMContent,
		cf, l.AssignedTo, l.DealValue, fmtTime(l.UpdatedAt),
		l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteLead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return requireRow(res)
}

// MoveLead advances the lead to stage toStageID and appends the history row
// in the same transaction: current_stage_id can never get ahead of the log.
func (s *Store) MoveLead(ctx context.Context, leadID, toStageID, movedBy string) error {
	now := time.Now().UTC()
	return s.RunTx(ctx, func(tx *sql.Tx) error {
		var from *string
		err := tx.QueryRowContext(ctx, `SELECT stage_id FROM leads WHERE id = ?`, leadID).Scan(&from)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE leads SET stage_id = ?, updated_at = ? WHERE id = ?`,
			toStageID, fmtTime(now), leadID)
		if err != nil {
			return fmt.Errorf("move lead: %w", err)
		}
		return insertHistory(ctx, tx, leadID, from, toStageID, now, movedBy)
	})
}

// BulkMoveLeads applies the same move+history semantics to many leads in one
// transaction. Returns how many leads were actually moved; ids not found are
// skipped, not errors.
func (s *Store) BulkMoveLeads(ctx context.Context, leadIDs []string, toStageID, movedBy string) (int, error) {
	if len(leadIDs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	moved := 0
	err := s.RunTx(ctx, func(tx *sql.Tx) error {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(leadIDs)), ",")
		args := make([]any, 0, len(leadIDs))
		for _, id := range leadIDs {
			args = append(args, id)
		}
		rows, err := tx.QueryContext(ctx,
			`SELECT id, stage_id FROM leads WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return err
		}
		type fromPair struct {
			id   string
			from *string
		}
		var pairs []fromPair
		for rows.Next() {
			var p fromPair
			if err := rows.Scan(&p.id, &p.from); err != nil {
				rows.Close()
				return err
			}
			pairs = append(pairs, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, p := range pairs {
			_, err := tx.ExecContext(ctx,
				`UPDATE leads SET stage_id = ?, updated_at = ? WHERE id = ?`,
				toStageID, fmtTime(now), p.id)
			if err != nil {
				return fmt.Errorf("bulk move lead %s: %w", p.id, err)
			}
			if err := insertHistory(ctx, tx, p.id, p.from, toStageID, now, movedBy); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	return moved, err
}

// HistoryForLead returns the lead's transitions oldest first.
func (s *Store) HistoryForLead(ctx context.Context, leadID string) ([]models.StageHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, from_stage_id, to_stage_id, moved_at, moved_by FROM stage_history WHERE lead_id = ? ORDER BY id`, leadID)
	if err != nil {
		return nil, fmt.Errorf("lead history: %w", err)
	}
	defer rows.Close()

	var out []models.StageHistory
	for rows.Next() {
		var h models.StageHistory
		var movedAt string
		if err := rows.Scan(&h.ID, &h.LeadID, &h.FromStageID, &h.ToStageID, &movedAt, &h.MovedBy); err != nil {
			return nil, err
		}
		h.MovedAt, _ = time.Parse(timeFormat, movedAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

// Funnel counts leads born inside [start, end] grouped by current stage.
// This is a cohort model: a lead created before the window is excluded even
// if it moved into a counted stage during the window.
func (s *Store) Funnel(ctx context.Context, pipelineID string, start, end time.Time) ([]models.FunnelStage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT st.id, st.name, st.color, st.order_index, COUNT(l.id)
		 FROM stages st
		 LEFT JOIN leads l ON l.stage_id = st.id
			AND l.created_at >= ? AND l.created_at <= ?
		 WHERE st.pipeline_id = ?
		 GROUP BY st.id, st.name, st.color, st.order_index
		 ORDER BY st.order_index`,
		fmtTime(start), fmtTime(end), pipelineID)
	if err != nil {
		return nil, fmt.Errorf("funnel: %w", err)
	}
	defer rows.Close()

	var out []models.FunnelStage
	for rows.Next() {
		var f models.FunnelStage
		if err := rows.Scan(&f.StageID, &f.Name, &f.Color, &f.OrderIndex, &f.Count); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FunnelByOrigin is the secondary cohort pass: same window, grouped by the
// lead's origin label instead of its stage.
func (s *Store) FunnelByOrigin(ctx context.Context, pipelineID string, start, end time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT origin, COUNT(*) FROM leads
		 WHERE pipeline_id = ? AND created_at >= ? AND created_at <= ?
		 GROUP BY origin`,
		pipelineID, fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("funnel by origin: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var origin string
		var n int
		if err := rows.Scan(&origin, &n); err != nil {
			return nil, err
		}
		out[origin] = n
	}
	return out, rows.Err()
}

// Recovery returns leads whose history shows they reached passedStageID but
// whose current stage is not in excludeStageIDs: re-engagement candidates
// that hit a checkpoint and never converted. The history membership test
// runs server-side rather than scanning histories in the application.
func (s *Store) Recovery(ctx context.Context, pipelineID, passedStageID string, excludeStageIDs []string) ([]models.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads
		WHERE pipeline_id = ?
		AND EXISTS (SELECT 1 FROM stage_history h WHERE h.lead_id = leads.id AND h.to_stage_id = ?)`
	args := []any{pipelineID, passedStageID}
	if len(excludeStageIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(excludeStageIDs)), ",")
		q += ` AND (stage_id IS NULL OR stage_id NOT IN (` + placeholders + `))`
		for _, id := range excludeStageIDs {
			args = append(args, id)
		}
	}
	q += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("recovery: %w", err)
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLead(r rowScanner) (models.Lead, error) {
	var l models.Lead
	var cf, created, updated string
	err := r.Scan(&l.ID, &l.UserID, &l.PipelineID, &l.StageID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Origin,
		&l.UTMSource, &l.UTMMedium, &l.UTMCampaign, &l.UTMTerm, &l.UTMContent,
		&cf, &l.AssignedTo, &l.DealValue, &created, &updated)
	if err != nil {
		return l, err
	}
	if cf != "" && cf != "{}" {
		_ = json.Unmarshal([]byte(cf), &l.CustomFields)
	}
	l.CreatedAt, _ = time.Parse(timeFormat, created)
	l.UpdatedAt, _ = time.Parse(timeFormat, updated)
	return l, nil
}

func marshalCustomFields(cf map[string]any) (string, error) {
	if len(cf) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(cf)
	if err != nil {
		return "", fmt.Errorf("marshal custom fields: %w", err)
	}
	return string(b), nil
}
