package httpx

import (
	"net/http"
	"slices"

	"github.com/viniruiz/dashgo/internal/metrics"
	"github.com/viniruiz/dashgo/internal/obs"
	"github.com/viniruiz/dashgo/internal/sheets"
)

// stract ingests a published sheet: fetch, parse, map. The mapped rows come
// back sorted descending by date, so the date range is last..first.
func (h *handlers) stract(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	if _, _, err := sheets.ExtractSheetID(rawURL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.Fetcher.FetchSheet(r.Context(), rawURL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "sheet is empty")
		return
	}

	records, found := sheets.MapRows(rows)
	if !slices.Contains(found, "date") {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":         "required column 'date' not found",
			"found_headers": rows[0],
		})
		return
	}
	obs.RowsIngested.Add(float64(len(records)))

	var dateRange *metrics.DateRange
	if len(records) > 0 {
		dateRange = &metrics.DateRange{
			Start: records[len(records)-1].Date,
			End:   records[0].Date,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":          records,
		"count":         len(records),
		"columns_found": found,
		"date_range":    dateRange,
	})
}

// dashboardSummary returns the aggregate views for a sheet in one payload.
// The url param falls back to the configured default sheet.
func (h *handlers) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		rawURL = h.SheetURL
	}
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "no sheet configured: pass ?url= or set SHEET_URL")
		return
	}

	rows, err := h.Fetcher.FetchSheet(r.Context(), rawURL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	records, _ := sheets.MapRows(rows)

	var dr *metrics.DateRange
	start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	if start != "" && end != "" {
		if !sheets.IsISODate(start) || !sheets.IsISODate(end) {
			writeError(w, http.StatusBadRequest, "start and end must be YYYY-MM-DD")
			return
		}
		dr = &metrics.DateRange{Start: start, End: end}
	}
	writeJSON(w, http.StatusOK, metrics.Aggregate(records, dr))
}
