package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viniruiz/dashgo/internal/crm"
	"github.com/viniruiz/dashgo/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps domain errors onto HTTP statuses. Stage/pipeline
// mismatches read as 404 ("no such stage for this lead"), validation
// problems as 400, anything else as a generic 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, crm.ErrStageMismatch):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNoStages),
		errors.Is(err, crm.ErrNameRequired),
		errors.Is(err, crm.ErrPipelineRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
