package handlers

import (
	"net/http"
	"swissgrid-converter/internal/ports"
)

// HealthHandler reports liveness plus the resources the converter runs with.
type HealthHandler struct {
	Grid        ports.GridInfo
	ProjVersion string
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := map[string]string{
		"status":      "ok",
		"grid":        h.Grid.Path,
		"search_path": h.Grid.SearchPath,
		"proj":        h.ProjVersion,
	}
	writeJSON(w, r, http.StatusOK, res)
}
