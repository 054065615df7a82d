// Package crm implements the lead lifecycle over the persistent store:
// creation with stage defaulting, validated stage moves, webhook dedup,
// bulk recovery moves and the cohort funnel / recovery analytics.
package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/viniruiz/dashgo/internal/models"
	"github.com/viniruiz/dashgo/internal/store"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrPipelineRequired = errors.New("pipeline_id is required")
	// ErrStageMismatch means the target stage exists but belongs to another
	// pipeline; the move is rejected before any write.
	ErrStageMismatch = errors.New("stage does not belong to the lead's pipeline")
)

type Service struct {
	st  *store.Store
	log *slog.Logger
}

func NewService(st *store.Store, log *slog.Logger) *Service {
	return &Service{st: st, log: log}
}

// CreateLeadInput is the single creation contract shared by the UI form, the
// CSV import and the webhook: pipeline and name required, stage optional.
type CreateLeadInput struct {
	PipelineID   string         `json:"pipeline_id"`
	StageID      string         `json:"stage_id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Company      string         `json:"company"`
	Origin       string         `json:"origin"`
	UTMSource    string         `json:"utm_source"`
	UTMMedium    string         `json:"utm_medium"`
	UTMCampaign  string         `json:"utm_campaign"`
	UTMTerm      string         `json:"utm_term"`
	UTMContent   string         `json:"utm_content"`
	CustomFields map[string]any `json:"custom_fields"`
	AssignedTo   string         `json:"assigned_to"`
	DealValue    *float64       `json:"deal_value"`
	// CreatedAt allows historical backfill; zero means "now".
	CreatedAt time.Time `json:"created_at"`
}

// CreateLead creates a lead into a stage of one of the user's pipelines.
// An omitted stage defaults to the pipeline's first stage; an omitted deal
// value inherits the stage's default_value. Exactly one history row is
// appended, stamped with the lead's creation time.
func (s *Service) CreateLead(ctx context.Context, userID string, in CreateLeadInput, movedBy string) (*models.Lead, error) {
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if in.PipelineID == "" {
		return nil, ErrPipelineRequired
	}
	if _, err := s.st.GetPipeline(ctx, userID, in.PipelineID); err != nil {
		return nil, err
	}

	var stage *models.Stage
	var err error
	if in.StageID != "" {
		stage, err = s.st.GetStage(ctx, in.StageID)
		if err != nil {
			return nil, err
		}
		if stage.PipelineID != in.PipelineID {
			return nil, ErrStageMismatch
		}
	} else {
		stage, err = s.st.FirstStage(ctx, in.PipelineID)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	origin := in.Origin
	if origin == "" {
		origin = "manual"
	}
	dealValue := in.DealValue
	if dealValue == nil && stage.DefaultValue != nil {
		v := *stage.DefaultValue
		dealValue = &v
	}

	lead := &models.Lead{
		ID:           uuid.NewString(),
		UserID:       userID,
		PipelineID:   in.PipelineID,
		StageID:      &stage.ID,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Company:      in.Company,
		Origin:       origin,
		UTMSource:    in.UTMSource,
		UTMMedium:    in.UTMMedium,
		UTMCampaign:  in.UTMCampaign,
		UTMTerm:      in.UTMTerm,
		UTMContent:   in.UTMContent,
		CustomFields: in.CustomFields,
		AssignedTo:   in.AssignedTo,
		DealValue:    dealValue,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}
	if err := s.st.CreateLead(ctx, lead, movedBy); err != nil {
		return nil, err
	}
	s.log.Info("lead created",
		slog.String("lead_id", lead.ID),
		slog.String("pipeline_id", lead.PipelineID),
		slog.String("origin", lead.Origin))
	return lead, nil
}

// MoveResult reports one completed stage transition.
type MoveResult struct {
	LeadID      string  `json:"lead_id"`
	FromStageID *string `json:"from_stage_id"`
	ToStageID   string  `json:"to_stage_id"`
	StageName   string  `json:"stage_name"`
}

// MoveLead validates that the target stage belongs to the lead's pipeline,
// then advances the lead. Validation failures reject before any write.
func (s *Service) MoveLead(ctx context.Context, userID, leadID, stageID, movedBy string) (*MoveResult, error) {
	lead, err := s.st.GetLead(ctx, userID, leadID)
	if err != nil {
		return nil, err
	}
	stage, err := s.st.GetStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage.PipelineID != lead.PipelineID {
		return nil, ErrStageMismatch
	}
	if err := s.st.MoveLead(ctx, leadID, stageID, movedBy); err != nil {
		return nil, err
	}
	return &MoveResult{
		LeadID:      leadID,
		FromStageID: lead.StageID,
		ToStageID:   stageID,
		StageName:   stage.Name,
	}, nil
}

// BulkMove applies one validated stage target to many leads, used by the
// recovery flow. Leads not owned by the user or in another pipeline are
// skipped.
func (s *Service) BulkMove(ctx context.Context, userID string, leadIDs []string, stageID, movedBy string) (int, error) {
	stage, err := s.st.GetStage(ctx, stageID)
	if err != nil {
		return 0, err
	}
	valid := make([]string, 0, len(leadIDs))
	for _, id := range leadIDs {
		lead, err := s.st.GetLead(ctx, userID, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return 0, err
		}
		if lead.PipelineID == stage.PipelineID {
			valid = append(valid, id)
		}
	}
	return s.st.BulkMoveLeads(ctx, valid, stageID, movedBy)
}

// UpsertWebhookLead implements the dedup-by-email policy scoped to one
// pipeline: a matching (user, email, pipeline) lead gets its mutable fields
// updated in place, with no stage change and no history row; otherwise a new
// lead is created normally. Returns created=true for the insert path.
func (s *Service) UpsertWebhookLead(ctx context.Context, userID string, in CreateLeadInput) (*models.Lead, bool, error) {
	if in.Name == "" {
		return nil, false, ErrNameRequired
	}
	if in.PipelineID == "" {
		return nil, false, ErrPipelineRequired
	}
	if in.Origin == "" {
		in.Origin = "webhook"
	}

	if in.Email != "" {
		existing, err := s.st.FindLeadByEmail(ctx, userID, in.PipelineID, in.Email)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
		if err == nil {
			applyMutable(existing, in)
			if err := s.st.UpdateLead(ctx, existing); err != nil {
				return nil, false, err
			}
			s.log.Info("webhook lead deduped", slog.String("lead_id", existing.ID))
			return existing, false, nil
		}
	}

	lead, err := s.CreateLead(ctx, userID, in, "webhook")
	if err != nil {
		return nil, false, err
	}
	return lead, true, nil
}

// applyMutable overlays the non-empty webhook fields onto an existing lead.
func applyMutable(l *models.Lead, in CreateLeadInput) {
	l.Name = in.Name
	if in.Phone != "" {
		l.Phone = in.Phone
	}
	if in.Company != "" {
		l.Company = in.Company
	}
	if in.UTMSource != "" {
		l.UTMSource = in.UTMSource
	}
	if in.UTMMedium != "" {
		l.UTMMedium = in.UTMMedium
	}
	if in.UTMCampaign != "" {
		l.UTMCampaign = in.UTMCampaign
	}
	if in.UTMTerm != "" {
		l.UTMTerm = in.UTMTerm
	}
	if in.UTMContent != "" {
		l.UTMContent = in.UTMContent
	}
	if in.DealValue != nil {
		l.DealValue = in.DealValue
	}
	if len(in.CustomFields) > 0 {
		if l.CustomFields == nil {
			l.CustomFields = map[string]any{}
		}
		for k, v := range in.CustomFields {
			l.CustomFields[k] = v
		}
	}
}

// ImportResult aggregates a bulk import; per-row status is not reported.
type ImportResult struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// ImportLeads pushes CSV-imported rows through the standard creation
// contract. Row failures are counted, logged and skipped.
func (s *Service) ImportLeads(ctx context.Context, userID string, rows []CreateLeadInput) (ImportResult, error) {
	var res ImportResult
	for i, in := range rows {
		if in.Origin == "" {
			in.Origin = "manual"
		}
		if _, err := s.CreateLead(ctx, userID, in, "system"); err != nil {
			res.Failed++
			s.log.Warn("import row failed", slog.Int("row", i), slog.String("err", err.Error()))
			continue
		}
		res.Created++
	}
	return res, nil
}

// FunnelReport is the cohort funnel for one pipeline and window.
type FunnelReport struct {
	PipelineID string               `json:"pipeline_id"`
	Start      time.Time            `json:"start"`
	End        time.Time            `json:"end"`
	Stages     []models.FunnelStage `json:"stages"`
	ByOrigin   map[string]int       `json:"by_origin"`
}

// Funnel counts leads created inside the window grouped by current stage and
// by origin. Cohort, not snapshot: leads born outside the window never count,
// no matter when they moved.
func (s *Service) Funnel(ctx context.Context, userID, pipelineID string, start, end time.Time) (*FunnelReport, error) {
	if _, err := s.st.GetPipeline(ctx, userID, pipelineID); err != nil {
		return nil, err
	}
	stages, err := s.st.Funnel(ctx, pipelineID, start, end)
	if err != nil {
		return nil, err
	}
	byOrigin, err := s.st.FunnelByOrigin(ctx, pipelineID, start, end)
	if err != nil {
		return nil, err
	}
	return &FunnelReport{
		PipelineID: pipelineID,
		Start:      start,
		End:        end,
		Stages:     stages,
		ByOrigin:   byOrigin,
	}, nil
}

// Recovery lists leads that passed through a checkpoint stage but whose
// current stage is outside the given success set.
func (s *Service) Recovery(ctx context.Context, userID, pipelineID, passedStageID string, excludeStageIDs []string) ([]models.Lead, error) {
	if _, err := s.st.GetPipeline(ctx, userID, pipelineID); err != nil {
		return nil, err
	}
	passed, err := s.st.GetStage(ctx, passedStageID)
	if err != nil {
		return nil, err
	}
	if passed.PipelineID != pipelineID {
		return nil, ErrStageMismatch
	}
	return s.st.Recovery(ctx, pipelineID, passedStageID, excludeStageIDs)
}

// CreatePipeline builds a pipeline and its initial stages, assigning ids and
// contiguous order indexes.
func (s *Service) CreatePipeline(ctx context.Context, userID, name, description string, stages []models.Stage) (*models.Pipeline, error) {
	if name == "" {
		return nil, fmt.Errorf("pipeline: %w", ErrNameRequired)
	}
	p := &models.Pipeline{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	for i := range stages {
		stages[i].ID = uuid.NewString()
		stages[i].PipelineID = p.ID
		stages[i].OrderIndex = i
	}
	if err := s.st.CreatePipeline(ctx, p, stages); err != nil {
		return nil, err
	}
	return p, nil
}
