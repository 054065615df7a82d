package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/viniruiz/dashgo/internal/models"
)

// listPipelines returns the user's pipelines with ordered stage lists. This
// public listing carries stage id/name/color/order only; lead counts belong
// to the board view, not the integration API.
func (h *handlers) listPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := h.Store.ListPipelines(r.Context(), UserID(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	type stageOut struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Color      string `json:"color"`
		OrderIndex int    `json:"order_index"`
	}
	type pipelineOut struct {
		ID          string     `json:"id"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Stages      []stageOut `json:"stages"`
	}

	out := make([]pipelineOut, 0, len(pipelines))
	for _, p := range pipelines {
		po := pipelineOut{ID: p.ID, Name: p.Name, Description: p.Description, Stages: []stageOut{}}
		for _, st := range p.Stages {
			po.Stages = append(po.Stages, stageOut{ID: st.ID, Name: st.Name, Color: st.Color, OrderIndex: st.OrderIndex})
		}
		out = append(out, po)
	}
	writeJSON(w, http.StatusOK, map[string]any{"pipelines": out})
}

type createPipelineRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Stages      []struct {
		Name         string   `json:"name"`
		Color        string   `json:"color"`
		DefaultValue *float64 `json:"default_value"`
	} `json:"stages"`
}

func (h *handlers) createPipeline(w http.ResponseWriter, r *http.Request) {
	var req createPipelineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	stages := make([]models.Stage, 0, len(req.Stages))
	for _, s := range req.Stages {
		stages = append(stages, models.Stage{Name: s.Name, Color: s.Color, DefaultValue: s.DefaultValue})
	}
	p, err := h.CRM.CreatePipeline(r.Context(), UserID(r.Context()), req.Name, req.Description, stages)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) updatePipeline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := h.Store.UpdatePipeline(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.Name, req.Description); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) deletePipeline(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePipeline(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) addStage(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "id")
	if _, err := h.Store.GetPipeline(r.Context(), UserID(r.Context()), pipelineID); err != nil {
		writeStoreError(w, err)
		return
	}
	var req struct {
		Name         string   `json:"name"`
		Color        string   `json:"color"`
		DefaultValue *float64 `json:"default_value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	st := &models.Stage{
		ID:           uuid.NewString(),
		PipelineID:   pipelineID,
		Name:         req.Name,
		Color:        req.Color,
		DefaultValue: req.DefaultValue,
	}
	if err := h.Store.AddStage(r.Context(), st); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *handlers) updateStage(w http.ResponseWriter, r *http.Request) {
	st, err := h.stageOwnedBy(r, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	var req struct {
		Name         string   `json:"name"`
		Color        string   `json:"color"`
		DefaultValue *float64 `json:"default_value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name != "" {
		st.Name = req.Name
	}
	if req.Color != "" {
		st.Color = req.Color
	}
	if req.DefaultValue != nil {
		st.DefaultValue = req.DefaultValue
	}
	if err := h.Store.UpdateStage(r.Context(), st); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) deleteStage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.stageOwnedBy(r, chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	if err := h.Store.DeleteStage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) reorderStages(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "id")
	if _, err := h.Store.GetPipeline(r.Context(), UserID(r.Context()), pipelineID); err != nil {
		writeStoreError(w, err)
		return
	}
	var req struct {
		StageIDs []string `json:"stage_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.StageIDs) == 0 {
		writeError(w, http.StatusBadRequest, "stage_ids is required")
		return
	}
	if err := h.Store.ReorderStages(r.Context(), pipelineID, req.StageIDs); err != nil {
		writeStoreError(w, err)
		return
	}
	stages, err := h.Store.StagesForPipeline(r.Context(), pipelineID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": stages})
}

// stageOwnedBy loads a stage and verifies its pipeline belongs to the
// authenticated user.
func (h *handlers) stageOwnedBy(r *http.Request, stageID string) (*models.Stage, error) {
	st, err := h.Store.GetStage(r.Context(), stageID)
	if err != nil {
		return nil, err
	}
	if _, err := h.Store.GetPipeline(r.Context(), UserID(r.Context()), st.PipelineID); err != nil {
		return nil, err
	}
	return st, nil
}

func (h *handlers) getSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, err := h.Store.GetSetting(r.Context(), UserID(r.Context()), key)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": v})
}

func (h *handlers) putSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	key := chi.URLParam(r, "key")
	if err := h.Store.PutSetting(r.Context(), UserID(r.Context()), key, req.Value); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}
