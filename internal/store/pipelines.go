package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/viniruiz/dashgo/internal/models"
)

// Timestamps are stored as UTC RFC3339 text: fixed width, so lexicographic
// comparison in SQL matches chronological order.
const timeFormat = time.RFC3339

func fmtTime(t time.Time) string { return t.UTC().Format(timeFormat) }

// CreatePipeline inserts a pipeline and its initial stages in one
// transaction: either the pipeline exists with all its stages or not at all.
func (s *Store) CreatePipeline(ctx context.Context, p *models.Pipeline, stages []models.Stage) error {
	return s.RunTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pipelines (id, user_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Name, p.Description, fmtTime(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert pipeline: %w", err)
		}
		for i := range stages {
			st := &stages[i]
			st.PipelineID = p.ID
			st.OrderIndex = i
			if err := insertStage(ctx, tx, st); err != nil {
				return err
			}
		}
		p.Stages = stages
		return nil
	})
}

func insertStage(ctx context.Context, tx *sql.Tx, st *models.Stage) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stages (id, pipeline_id, name, color, order_index, default_value) VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID, st.PipelineID, st.Name, st.Color, st.OrderIndex, st.DefaultValue)
	if err != nil {
		return fmt.Errorf("insert stage: %w", err)
	}
	return nil
}

// ListPipelines returns the user's pipelines with stages ordered by
// order_index and per-stage lead counts joined in application code.
func (s *Store) ListPipelines(ctx context.Context, userID string) ([]models.Pipeline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, created_at FROM pipelines WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var out []models.Pipeline
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		stages, err := s.StagesForPipeline(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Stages = stages
	}
	return out, nil
}

// GetPipeline fetches one pipeline scoped to its owner, stages included.
func (s *Store) GetPipeline(ctx context.Context, userID, id string) (*models.Pipeline, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, created_at FROM pipelines WHERE id = ? AND user_id = ?`, id, userID)
	p, err := scanPipeline(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	stages, err := s.StagesForPipeline(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Stages = stages
	return &p, nil
}

func (s *Store) UpdatePipeline(ctx context.Context, userID, id, name, description string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipelines SET name = ?, description = ? WHERE id = ? AND user_id = ?`,
		name, description, id, userID)
	if err != nil {
		return fmt.Errorf("update pipeline: %w", err)
	}
	return requireRow(res)
}

// DeletePipeline removes the pipeline; stages and leads go with it via
// foreign-key cascades.
func (s *Store) DeletePipeline(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pipelines WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete pipeline: %w", err)
	}
	return requireRow(res)
}

// StagesForPipeline returns the ordered stage list with lead counts computed
// from the leads table at read time.
func (s *Store) StagesForPipeline(ctx context.Context, pipelineID string) ([]models.Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pipeline_id, name, color, order_index, default_value FROM stages WHERE pipeline_id = ? ORDER BY order_index`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var stages []models.Stage
	for rows.Next() {
		var st models.Stage
		if err := rows.Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.OrderIndex, &st.DefaultValue); err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts, err := s.leadCounts(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	for i := range stages {
		stages[i].LeadCount = counts[stages[i].ID]
	}
	return stages, nil
}

func (s *Store) leadCounts(ctx context.Context, pipelineID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage_id, COUNT(*) FROM leads WHERE pipeline_id = ? AND stage_id IS NOT NULL GROUP BY stage_id`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// FirstStage returns the stage with the lowest order_index, the default
// landing spot for new leads.
func (s *Store) FirstStage(ctx context.Context, pipelineID string) (*models.Stage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline_id, name, color, order_index, default_value FROM stages WHERE pipeline_id = ? ORDER BY order_index LIMIT 1`, pipelineID)
	var st models.Stage
	err := row.Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.OrderIndex, &st.DefaultValue)
	if err == sql.ErrNoRows {
		return nil, ErrNoStages
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStage fetches a stage by id.
func (s *Store) GetStage(ctx context.Context, id string) (*models.Stage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline_id, name, color, order_index, default_value FROM stages WHERE id = ?`, id)
	var st models.Stage
	err := row.Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.OrderIndex, &st.DefaultValue)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// AddStage appends a stage to the end of the pipeline's order.
func (s *Store) AddStage(ctx context.Context, st *models.Stage) error {
	return s.RunTx(ctx, func(tx *sql.Tx) error {
		var next sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(order_index) + 1 FROM stages WHERE pipeline_id = ?`, st.PipelineID).Scan(&next); err != nil {
			return err
		}
		st.OrderIndex = int(next.Int64) // 0 when the pipeline had no stages
		return insertStage(ctx, tx, st)
	})
}

func (s *Store) UpdateStage(ctx context.Context, st *models.Stage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stages SET name = ?, color = ?, default_value = ? WHERE id = ?`,
		st.Name, st.Color, st.DefaultValue, st.ID)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteStage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	return requireRow(res)
}

// ReorderStages rewrites order_index for the whole pipeline in a single
// transaction: the order is either fully applied or untouched. stageIDs must
// list every stage of the pipeline in the desired order.
func (s *Store) ReorderStages(ctx context.Context, pipelineID string, stageIDs []string) error {
	return s.RunTx(ctx, func(tx *sql.Tx) error {
		for i, id := range stageIDs {
			res, err := tx.ExecContext(ctx,
				`UPDATE stages SET order_index = ? WHERE id = ? AND pipeline_id = ?`, i, id, pipelineID)
			if err != nil {
				return fmt.Errorf("reorder stage %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("reorder stage %s: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPipeline(r rowScanner) (models.Pipeline, error) {
	var p models.Pipeline
	var created string
	if err := r.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &created); err != nil {
		return p, err
	}
	p.CreatedAt, _ = time.Parse(timeFormat, created)
	return p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
