package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/viniruiz/dashgo/internal/crm"
	"github.com/viniruiz/dashgo/internal/models"
	"github.com/viniruiz/dashgo/internal/sheets"
	"github.com/viniruiz/dashgo/internal/store"
)

const testKey = "sk-test"

type testEnv struct {
	srv *httptest.Server
	st  *store.Store
	crm *crm.Service
}

func newTestEnv(t *testing.T, sheetBase string) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.CreateAPIKey(context.Background(), "u1", testKey, "test"); err != nil {
		t.Fatal(err)
	}

	fetcher := sheets.NewFetcher(sheets.NewHTTPClient(2*time.Second), log)
	if sheetBase != "" {
		fetcher = fetcher.WithBaseURL(sheetBase)
	}
	svc := crm.NewService(st, log)

	srv := httptest.NewServer(NewRouter(Deps{
		Log:     log,
		Fetcher: fetcher,
		CRM:     svc,
		Store:   st,
	}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, st: st, crm: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-API-Key", testKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp, out
}

func (e *testEnv) seedPipeline(t *testing.T, stageNames ...string) *models.Pipeline {
	t.Helper()
	stages := make([]models.Stage, len(stageNames))
	for i, n := range stageNames {
		stages[i] = models.Stage{Name: n}
	}
	p, err := e.crm.CreatePipeline(context.Background(), "u1", "Sales", "", stages)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t, "")

	for _, hdr := range []string{"", "sk-wrong"} {
		req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/api/crm/pipelines", nil)
		if hdr != "" {
			req.Header.Set("X-API-Key", hdr)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("key %q: status = %d, want 401", hdr, resp.StatusCode)
		}
		if !strings.Contains(string(body), "invalid API key") {
			t.Errorf("key %q: body = %s, want uniform message", hdr, body)
		}
	}
}

func TestHealthEndpointsArePublic(t *testing.T) {
	e := newTestEnv(t, "")
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(e.srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestPipelineLifecycle(t *testing.T) {
	e := newTestEnv(t, "")

	resp, body := e.do(t, http.MethodPost, "/api/crm/pipelines", map[string]any{
		"name": "Sales",
		"stages": []map[string]any{
			{"name": "New", "color": "#aaa"},
			{"name": "Won", "color": "#0f0"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create: no id in %v", body)
	}

	resp, body = e.do(t, http.MethodGet, "/api/crm/pipelines", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status = %d", resp.StatusCode)
	}
	pipelines, _ := body["pipelines"].([]any)
	if len(pipelines) != 1 {
		t.Fatalf("list: %v", body)
	}

	resp, _ = e.do(t, http.MethodDelete, "/api/crm/pipelines/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status = %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodDelete, "/api/crm/pipelines/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete again: status = %d, want 404", resp.StatusCode)
	}
}

func TestLeadMoveEndpoint(t *testing.T) {
	e := newTestEnv(t, "")
	p := e.seedPipeline(t, "A", "B")

	resp, lead := e.do(t, http.MethodPost, "/api/crm/leads", map[string]any{
		"pipeline_id": p.ID,
		"name":        "Ana",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create lead: status = %d, body = %v", resp.StatusCode, lead)
	}
	leadID := lead["id"].(string)
	if lead["stage_id"] != p.Stages[0].ID {
		t.Fatalf("lead landed in %v, want first stage", lead["stage_id"])
	}

	resp, body := e.do(t, http.MethodPost, "/api/crm/leads/"+leadID+"/move", map[string]any{
		"stage_id": p.Stages[1].ID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move: status = %d, body = %v", resp.StatusCode, body)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["from_stage_id"] != p.Stages[0].ID || body["to_stage_id"] != p.Stages[1].ID {
		t.Errorf("stages = %v -> %v", body["from_stage_id"], body["to_stage_id"])
	}
	if body["stage_name"] != "B" {
		t.Errorf("stage_name = %v", body["stage_name"])
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "B") {
		t.Errorf("message = %q", msg)
	}

	// missing stage_id is a 400
	resp, _ = e.do(t, http.MethodPost, "/api/crm/leads/"+leadID+"/move", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty move: status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookCreateThenUpdate(t *testing.T) {
	e := newTestEnv(t, "")
	p := e.seedPipeline(t, "New")

	payload := map[string]any{
		"pipeline_id": p.ID,
		"name":        "Ana",
		"email":       "ana@x.com",
	}
	resp, body := e.do(t, http.MethodPost, "/api/crm/leads/webhook", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first webhook: status = %d, body = %v", resp.StatusCode, body)
	}
	if body["status"] != "created" {
		t.Errorf("status = %v", body["status"])
	}
	firstID := body["lead_id"]

	resp, body = e.do(t, http.MethodPost, "/api/crm/leads/webhook", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second webhook: status = %d, body = %v", resp.StatusCode, body)
	}
	if body["status"] != "updated" || body["lead_id"] != firstID {
		t.Errorf("dedup response = %v", body)
	}

	leads, err := e.st.ListLeads(context.Background(), "u1", store.LeadFilter{PipelineID: p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 1 {
		t.Fatalf("lead rows = %d, want 1", len(leads))
	}
}

func TestCheckLeadEndpoint(t *testing.T) {
	e := newTestEnv(t, "")
	p := e.seedPipeline(t, "New")

	resp, body := e.do(t, http.MethodGet, "/api/crm/leads/check?email=ana@x.com", nil)
	if resp.StatusCode != http.StatusOK || body["exists"] != false {
		t.Fatalf("unknown email: %d %v", resp.StatusCode, body)
	}

	if _, err := e.crm.CreateLead(context.Background(), "u1", crm.CreateLeadInput{
		PipelineID: p.ID, Name: "Ana", Email: "ana@x.com",
	}, "api"); err != nil {
		t.Fatal(err)
	}

	resp, body = e.do(t, http.MethodGet, "/api/crm/leads/check?email=ANA@x.com", nil)
	if resp.StatusCode != http.StatusOK || body["exists"] != true {
		t.Fatalf("known email: %d %v", resp.StatusCode, body)
	}
	if body["lead_id"] == "" {
		t.Error("lead_id missing")
	}

	resp, _ = e.do(t, http.MethodGet, "/api/crm/leads/check", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing email: status = %d, want 400", resp.StatusCode)
	}
}

func TestFunnelEndpoint(t *testing.T) {
	e := newTestEnv(t, "")
	p := e.seedPipeline(t, "A", "B")
	if _, err := e.crm.CreateLead(context.Background(), "u1", crm.CreateLeadInput{
		PipelineID: p.ID, Name: "Ana",
	}, "api"); err != nil {
		t.Fatal(err)
	}

	resp, body := e.do(t, http.MethodGet, "/api/crm/funnel?pipeline_id="+p.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("funnel: status = %d, body = %v", resp.StatusCode, body)
	}
	stages, _ := body["stages"].([]any)
	if len(stages) != 2 {
		t.Fatalf("funnel stages = %v", body["stages"])
	}
	first := stages[0].(map[string]any)
	if first["count"] != float64(1) {
		t.Errorf("stage A count = %v, want 1", first["count"])
	}

	resp, _ = e.do(t, http.MethodGet, "/api/crm/funnel", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing pipeline_id: status = %d, want 400", resp.StatusCode)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	e := newTestEnv(t, "")

	resp, _ := e.do(t, http.MethodGet, "/api/settings/sheet_url", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unset setting: status = %d, want 404", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodPut, "/api/settings/sheet_url", map[string]any{"value": "https://sheets"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put: status = %d", resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodGet, "/api/settings/sheet_url", nil)
	if resp.StatusCode != http.StatusOK || body["value"] != "https://sheets" {
		t.Fatalf("get: %d %v", resp.StatusCode, body)
	}
}

func TestStractEndpoint(t *testing.T) {
	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Date,Campaign Name,Spend\n2025-01-16,BF,200\n2025-01-15,BF,100\n")
	}))
	defer sheet.Close()
	e := newTestEnv(t, sheet.URL)

	resp, err := http.Get(e.srv.URL + "/api/sheets/stract?url=" + "https://docs.google.com/spreadsheets/d/sheet1/edit")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	dr, _ := body["date_range"].(map[string]any)
	if dr["start"] != "2025-01-15" || dr["end"] != "2025-01-16" {
		t.Errorf("date_range = %v", dr)
	}

	resp2, err := http.Get(e.srv.URL + "/api/sheets/stract")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, want 400", resp2.StatusCode)
	}
}

func TestStractMissingDateColumn(t *testing.T) {
	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Campaign Name,Spend\nBF,100\n")
	}))
	defer sheet.Close()
	e := newTestEnv(t, sheet.URL)

	resp, err := http.Get(e.srv.URL + "/api/sheets/stract?url=https://docs.google.com/spreadsheets/d/sheet1/edit")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	headers, _ := body["found_headers"].([]any)
	if len(headers) != 2 {
		t.Errorf("found_headers = %v", body["found_headers"])
	}
}

func TestDashboardSummary(t *testing.T) {
	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Date,Spend,Impressions,Action Link Clicks\n2025-01-15,100,50,10\n")
	}))
	defer sheet.Close()
	e := newTestEnv(t, sheet.URL)

	resp, err := http.Get(e.srv.URL + "/api/dashboard/summary?url=https://docs.google.com/spreadsheets/d/sheet1/edit")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	m, _ := body["metrics"].(map[string]any)
	if m["avg_ctr"] != float64(20) {
		t.Errorf("avg_ctr = %v, want 20", m["avg_ctr"])
	}
}
