package export

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Handler provides HTTP access to tenant export archives.
//
//	POST /api/v1/exports?tenant=<id>  create a new archive
//	GET  /api/v1/exports?tenant=<id>  list stored archives
//	GET  /api/v1/exports/{key...}     fetch one archive by blob key
type Handler struct {
	Exporter *Exporter
}

// NewHandler constructs an export HTTP handler.
func NewHandler(e *Exporter) *Handler {
	return &Handler{Exporter: e}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Exporter == nil {
		writeError(w, http.StatusInternalServerError, "exporter not configured")
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/exports":
		h.handleCollection(w, r)
	case strings.HasPrefix(path, "/api/v1/exports/"):
		h.handleFetch(w, r, strings.TrimPrefix(path, "/api/v1/exports/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")
	switch r.Method {
	case http.MethodPost:
		info, err := h.Exporter.Export(r.Context(), tenant)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"export": info})
	case http.MethodGet:
		infos, err := h.Exporter.List(r.Context(), tenant)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exports": infos})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request, key string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	archive, err := h.Exporter.Fetch(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archive": archive})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
