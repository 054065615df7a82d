package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viniruiz/dashgo/internal/crm"
	"github.com/viniruiz/dashgo/internal/sheets"
	"github.com/viniruiz/dashgo/internal/store"
	"github.com/viniruiz/dashgo/internal/utils"
)

// Deps is everything the router needs, passed in explicitly.
type Deps struct {
	Log      *slog.Logger
	Fetcher  *sheets.Fetcher
	CRM      *crm.Service
	Store    *store.Store
	SheetURL string // default sheet for the dashboard endpoint
}

type handlers struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	h := &handlers{Deps: d}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	mux.Use(utils.Instrument)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Get("/api/sheets/stract", h.stract)
	mux.Get("/api/dashboard/summary", h.dashboardSummary)

	mux.Group(func(api chi.Router) {
		api.Use(APIKeyAuth(d.Store))

		api.Route("/api/crm", func(r chi.Router) {
			r.Get("/pipelines", h.listPipelines)
			r.Post("/pipelines", h.createPipeline)
			r.Patch("/pipelines/{id}", h.updatePipeline)
			r.Delete("/pipelines/{id}", h.deletePipeline)
			r.Post("/pipelines/{id}/stages", h.addStage)
			r.Put("/pipelines/{id}/stages/reorder", h.reorderStages)
			r.Patch("/stages/{id}", h.updateStage)
			r.Delete("/stages/{id}", h.deleteStage)

			r.Get("/leads", h.listLeads)
			r.Post("/leads", h.createLead)
			r.Get("/leads/check", h.checkLead)
			r.Post("/leads/webhook", h.webhookLead)
			r.Post("/leads/bulk-move", h.bulkMoveLeads)
			r.Post("/leads/import", h.importLeads)
			r.Get("/leads/{id}", h.getLead)
			r.Patch("/leads/{id}", h.updateLead)
			r.Delete("/leads/{id}", h.deleteLead)
			r.Post("/leads/{id}/move", h.moveLead)
			r.Post("/leads/{id}/tags", h.addLeadTag)
			r.Delete("/leads/{id}/tags/{tagID}", h.removeLeadTag)

			r.Get("/tags", h.listTags)
			r.Post("/tags", h.createTag)

			r.Get("/funnel", h.funnel)
			r.Get("/recovery", h.recovery)
		})

		api.Get("/api/settings/{key}", h.getSetting)
		api.Put("/api/settings/{key}", h.putSetting)
	})

	return mux
}
