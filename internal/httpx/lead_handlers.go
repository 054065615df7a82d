package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/viniruiz/dashgo/internal/crm"
	"github.com/viniruiz/dashgo/internal/models"
	"github.com/viniruiz/dashgo/internal/obs"
	"github.com/viniruiz/dashgo/internal/store"
)

func (h *handlers) createLead(w http.ResponseWriter, r *http.Request) {
	var in crm.CreateLeadInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lead, err := h.CRM.CreateLead(r.Context(), UserID(r.Context()), in, "api")
	if err != nil {
		writeStoreError(w, err)
		return
	}
	obs.LeadsCreated.WithLabelValues("api").Inc()
	writeJSON(w, http.StatusCreated, lead)
}

func (h *handlers) listLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	leads, err := h.Store.ListLeads(r.Context(), UserID(r.Context()), store.LeadFilter{
		PipelineID: q.Get("pipeline_id"),
		StageID:    q.Get("stage_id"),
		Origin:     q.Get("origin"),
		Search:     q.Get("search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

func (h *handlers) getLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Store.GetLead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	tags, err := h.Store.TagsForLead(r.Context(), lead.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	lead.Tags = tags
	writeJSON(w, http.StatusOK, lead)
}

type updateLeadRequest struct {
	Name         *string        `json:"name"`
	Email        *string        `json:"email"`
	Phone        *string        `json:"phone"`
	Company      *string        `json:"company"`
	Origin       *string        `json:"origin"`
	UTMSource    *string        `json:"utm_source"`
	UTMMedium    *string        `json:"utm_medium"`
	UTMCampaign  *string        `json:"utm_campaign"`
	UTMTerm      *string        `json:"utm_term"`
	UTMContent   *string        `json:"utm_content"`
	CustomFields map[string]any `json:"custom_fields"`
	AssignedTo   *string        `json:"assigned_to"`
	DealValue    *float64       `json:"deal_value"`
}

func (h *handlers) updateLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Store.GetLead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	var req updateLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	setIf(&lead.Name, req.Name)
	setIf(&lead.Email, req.Email)
	setIf(&lead.Phone, req.Phone)
	setIf(&lead.Company, req.Company)
	setIf(&lead.Origin, req.Origin)
	setIf(&lead.UTMSource, req.UTMSource)
	setIf(&lead.UTMMedium, req.UTMMedium)
	setIf(&lead.UTMCampaign, req.UTMCampaign)
	setIf(&lead.UTMTerm, req.UTMTerm)
	setIf(&lead.UTMContent, req.UTMContent)
	setIf(&lead.AssignedTo, req.AssignedTo)
	if req.DealValue != nil {
		lead.DealValue = req.DealValue
	}
	if req.CustomFields != nil {
		lead.CustomFields = req.CustomFields
	}
	if lead.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := h.Store.UpdateLead(r.Context(), lead); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (h *handlers) deleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteLead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// checkLead answers "does a lead with this email already exist", optionally
// scoped to one pipeline.
func (h *handlers) checkLead(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	lead, err := h.Store.FindLeadByEmail(r.Context(), UserID(r.Context()), r.URL.Query().Get("pipeline_id"), email)
	if err != nil {
		if err == store.ErrNotFound {
			writeJSON(w, http.StatusOK, map[string]any{"exists": false})
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": true, "lead_id": lead.ID})
}

// webhookLead is the public lead-ingestion contract: dedup by email within
// the pipeline, 201 on create, 200 on update of the existing lead.
func (h *handlers) webhookLead(w http.ResponseWriter, r *http.Request) {
	var in crm.CreateLeadInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lead, created, err := h.CRM.UpsertWebhookLead(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if created {
		obs.LeadsCreated.WithLabelValues("webhook").Inc()
		writeJSON(w, http.StatusCreated, map[string]string{"lead_id": lead.ID, "status": "created"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lead_id": lead.ID, "status": "updated"})
}

func (h *handlers) moveLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StageID string `json:"stage_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.StageID == "" {
		writeError(w, http.StatusBadRequest, "stage_id is required")
		return
	}
	res, err := h.CRM.MoveLead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.StageID, "api")
	if err != nil {
		writeStoreError(w, err)
		return
	}
	obs.StageMoves.Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"lead_id":       res.LeadID,
		"from_stage_id": res.FromStageID,
		"to_stage_id":   res.ToStageID,
		"stage_name":    res.StageName,
		"message":       "lead moved to " + res.StageName,
	})
}

func (h *handlers) bulkMoveLeads(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeadIDs []string `json:"lead_ids"`
		StageID string   `json:"stage_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.LeadIDs) == 0 || req.StageID == "" {
		writeError(w, http.StatusBadRequest, "lead_ids and stage_id are required")
		return
	}
	moved, err := h.CRM.BulkMove(r.Context(), UserID(r.Context()), req.LeadIDs, req.StageID, "bulk_recovery")
	if err != nil {
		writeStoreError(w, err)
		return
	}
	obs.StageMoves.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "moved": moved})
}

func (h *handlers) importLeads(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Leads []crm.CreateLeadInput `json:"leads"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Leads) == 0 {
		writeError(w, http.StatusBadRequest, "leads is required")
		return
	}
	res, err := h.CRM.ImportLeads(r.Context(), UserID(r.Context()), req.Leads)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	obs.LeadsCreated.WithLabelValues("import").Add(float64(res.Created))
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) createTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	tag := &models.Tag{ID: uuid.NewString(), UserID: UserID(r.Context()), Name: req.Name, Color: req.Color}
	if err := h.Store.CreateTag(r.Context(), tag); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (h *handlers) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Store.ListTags(r.Context(), UserID(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *handlers) addLeadTag(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Store.GetLead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	var req struct {
		TagID string `json:"tag_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.TagID == "" {
		writeError(w, http.StatusBadRequest, "tag_id is required")
		return
	}
	if err := h.Store.AddTagToLead(r.Context(), lead.ID, req.TagID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) removeLeadTag(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Store.GetLead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := h.Store.RemoveTagFromLead(r.Context(), lead.ID, chi.URLParam(r, "tagID")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// funnel serves the cohort funnel: leads created inside [start, end] grouped
// by current stage and origin. End is inclusive through end of day.
func (h *handlers) funnel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pipelineID := q.Get("pipeline_id")
	if pipelineID == "" {
		writeError(w, http.StatusBadRequest, "pipeline_id is required")
		return
	}
	start, end, err := parseWindow(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.CRM.Funnel(r.Context(), UserID(r.Context()), pipelineID, start, end)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) recovery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pipelineID := q.Get("pipeline_id")
	passed := q.Get("passed_stage_id")
	if pipelineID == "" || passed == "" {
		writeError(w, http.StatusBadRequest, "pipeline_id and passed_stage_id are required")
		return
	}
	var exclude []string
	if ex := q.Get("exclude"); ex != "" {
		for _, id := range strings.Split(ex, ",") {
			if id = strings.TrimSpace(id); id != "" {
				exclude = append(exclude, id)
			}
		}
	}
	leads, err := h.CRM.Recovery(r.Context(), UserID(r.Context()), pipelineID, passed, exclude)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

// parseWindow turns YYYY-MM-DD bounds into an inclusive UTC window; missing
// bounds default to the last 30 days.
func parseWindow(start, end string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	s := now.AddDate(0, 0, -30)
	e := now
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return s, e, err
		}
		s = t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return s, e, err
		}
		e = t.Add(24*time.Hour - time.Second)
	}
	return s, e, nil
}
