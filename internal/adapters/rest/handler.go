// Package rest exposes the entity collections over HTTP. Listing supports
// the same filter criteria the controllers evaluate in memory: substring
// search, tag membership, category equality, year match, and currency
// against a validity window.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clubcore/docs/schema/openapi"
	"clubcore/internal/core"
)

// Handler routes the /api/v1 entity collection endpoints.
type Handler struct {
	Service *core.Service
	Logger  *slog.Logger
}

// NewHandler constructs a REST handler over the service.
func NewHandler(svc *core.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "service not configured")
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "/api/v1/openapi.json" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openapi.Spec())
		return
	}
	if !strings.HasPrefix(path, "/api/v1/") {
		http.NotFound(w, r)
		return
	}
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	collection := segments[0]
	rest := segments[1:]
	switch collection {
	case "persons":
		h.persons(w, r, rest)
	case "resources":
		h.resources(w, r, rest)
	case "menu-items":
		h.menuItems(w, r, rest)
	case "ownerships":
		h.ownerships(w, r, rest)
	case "work-relations":
		h.workRelations(w, r, rest)
	case "reservations":
		h.reservations(w, r, rest)
	case "transfers":
		h.transfers(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

// query carries the decoded list filter parameters.
type query struct {
	tenant   string
	search   string
	tag      string
	category string
	year     int
	current  bool
	asOf     time.Time
}

func parseQuery(values url.Values) query {
	q := query{
		tenant:   values.Get("tenant"),
		search:   values.Get("q"),
		tag:      values.Get("tag"),
		category: values.Get("category"),
		asOf:     time.Now().UTC(),
	}
	if y := values.Get("year"); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			q.year = n
		}
	}
	if values.Get("current") == "true" {
		q.current = true
	}
	if d := values.Get("as_of"); d != "" {
		if ts, err := time.Parse(time.DateOnly, d); err == nil {
			q.asOf = ts
		}
	}
	return q
}

// matches applies the universal predicates. Category and window checks are
// layered on by the per-collection handlers that carry those discriminants.
func (q query) matches(index string, tags string) bool {
	return core.MatchIndex(index, q.search) && core.MatchTag(tags, q.tag)
}

func (h *Handler) persons(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := parseQuery(r.URL.Query())
		out := make([]core.Person, 0)
		for _, p := range h.Service.ListPersons(q.tenant) {
			if q.matches(p.Index, p.Tags) {
				out = append(out, p)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"persons": out})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var payload core.Person
		if !decode(w, r, &payload) {
			return
		}
		created, res, err := h.Service.CreatePerson(r.Context(), payload)
		h.respondMutation(w, http.StatusCreated, map[string]any{"person": created}, res, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var payload core.Person
		if !decode(w, r, &payload) {
			return
		}
		payload.Key = rest[0]
		updated, res, err := h.Service.SavePerson(r.Context(), payload)
		h.respondMutation(w, http.StatusOK, map[string]any{"person": updated}, res, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		res, err := h.Service.DeletePerson(r.Context(), rest[0])
		h.respondMutation(w, http.StatusOK, map[string]any{"deleted": rest[0]}, res, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) resources(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := parseQuery(r.URL.Query())
		out := make([]core.Resource, 0)
		for _, res := range h.Service.ListResources(q.tenant) {
			if q.matches(res.Index, res.Tags) && core.MatchCategory(res.Kind, q.category) {
				out = append(out, res)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"resources": out})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var payload core.Resource
		if !decode(w, r, &payload) {
			return
		}
		created, res, err := h.Service.CreateResource(r.Context(), payload)
		h.respondMutation(w, http.StatusCreated, map[string]any{"resource": created}, res, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var payload core.Resource
		if !decode(w, r, &payload) {
			return
		}
		payload.Key = rest[0]
		updated, res, err := h.Service.SaveResource(r.Context(), payload)
		h.respondMutation(w, http.StatusOK, map[string]any{"resource": updated}, res, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		res, err := h.Service.DeleteResource(r.Context(), rest[0])
		h.respondMutation(w, http.StatusOK, map[string]any{"deleted": rest[0]}, res, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) menuItems(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := parseQuery(r.URL.Query())
		out := make([]core.MenuItem, 0)
		for _, m := range h.Service.ListMenuItems(q.tenant) {
			if !q.matches(m.Index, m.Tags) || !core.MatchCategory(m.Category, q.category) {
				continue
			}
			if q.current && !core.IsCurrent(m.Window, q.asOf) {
				continue
			}
			out = append(out, m)
		}
		writeJSON(w, http.StatusOK, map[string]any{"menu_items": out})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var payload core.MenuItem
		if !decode(w, r, &payload) {
			return
		}
		created, res, err := h.Service.CreateMenuItem(r.Context(), payload)
		h.respondMutation(w, http.StatusCreated, map[string]any{"menu_item": created}, res, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var payload core.MenuItem
		if !decode(w, r, &payload) {
			return
		}
		payload.Key = rest[0]
		updated, res, err := h.Service.SaveMenuItem(r.Context(), payload)
		h.respondMutation(w, http.StatusOK, map[string]any{"menu_item": updated}, res, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		res, err := h.Service.DeleteMenuItem(r.Context(), rest[0])
		h.respondMutation(w, http.StatusOK, map[string]any{"deleted": rest[0]}, res, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) ownerships(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := parseQuery(r.URL.Query())
		out := make([]core.Ownership, 0)
		for _, o := range h.Service.ListOwnerships(q.tenant) {
			if !q.matches(o.Index, o.Tags) || !core.MatchCategory(o.Kind, q.category) {
				continue
			}
			if q.current && (o.Archived || !core.IsCurrent(o.Window, q.asOf)) {
				continue
			}
			out = append(out, o)
		}
		writeJSON(w, http.StatusOK, map[string]any{"ownerships": out})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var payload core.Ownership
		if !decode(w, r, &payload) {
			return
		}
		created, res, err := h.Service.CreateOwnership(r.Context(), payload)
		h.respondMutation(w, http.StatusCreated, map[string]any{"ownership": created}, res, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var payload core.Ownership
		if !decode(w, r, &payload) {
			return
		}
		payload.Key = rest[0]
		updated, res, err := h.Service.SaveOwnership(r.Context(), payload)
		h.respondMutation(w, http.StatusOK, map[string]any{"ownership": updated}, res, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		archived, res, err := h.Service.ArchiveOwnership(r.Context(), rest[0])
		h.respondMutation(w, http.StatusOK, map[string]any{"ownership": archived}, res, err)
	case len(rest) == 2 && rest[1] == "end" && r.Method == http.MethodPost:
		asOf, ok := parseEndDate(w, r)
		if !ok {
			return
		}
		ended, res, err := h.Service.EndOwnershipByDate(r.Context(), rest[0], asOf)
		h.respondMutation(w, http.StatusOK, map[string]any{"ownership": ended}, res, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) workRelations(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := parseQuery(r.URL.Query())
		out := make([]core.WorkRelation, 0)
		for _, wr := range h.Service.ListWorkRelations(q.tenant) {
			if !q.matches(wr.Index, wr.Tags) || !core.MatchCategory(wr.Role, q.category) {
				continue
			}
			if q.current && (wr.Archived || !core.IsCurrent(wr.Window, q.asOf)) {
				continue
			}
			out = append(out, wr)
		}
		writeJSON(w, http.StatusOK, map[string]any{"work_relations": out})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var payload core.WorkRelation
		if !decode(w, r, &payload) {
			return
		}
		created, res, err := h.Service.CreateWorkRelation(r.Context(), payload)
		h.respondMutation(w, http.StatusCreated, map[string]any{"work_relation": created}, res, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var payload core.WorkRelation
		if !decode(w, r, &payload) {
			return
		}
		payload.Key = rest[0]
		updated, res, err := h.Service.SaveWorkRelation(r.Context(), payload)
		h.respondMutation(w, http.StatusOK, map[string]any{"work_relation": updated}, res, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		archived, res, err := h.Service.ArchiveWorkRelation(r.Context(), rest[0])
		h.respondMutation(w, http.StatusOK, map[string]any{"work_relation": archived}, res, err)
	case len(rest) == 2 && rest[1] == "end" && r.Method == http.MethodPost:
		asOf, ok := parseEndDate(w, r)
		if !ok {
			return
		}
		ended, res, err := h.Service.EndWorkRelationByDate(r.Context(), rest[0], asOf)
		h.respondMutation(w, http.StatusOK, map[string]any{"work_relation": ended}, res, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) reservations(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := parseQuery(r.URL.Query())
		out := make([]core.Reservation, 0)
		for _, res := range h.Service.ListReservations(q.tenant) {
			if !q.matches(res.Index, res.Tags) || !core.MatchYear(res.Date, q.year) {
				continue
			}
			out = append(out, res)
		}
		writeJSON(w, http.StatusOK, map[string]any{"reservations": out})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var payload core.Reservation
		if !decode(w, r, &payload) {
			return
		}
		created, res, err := h.Service.CreateReservation(r.Context(), payload)
		h.respondMutation(w, http.StatusCreated, map[string]any{"reservation": created}, res, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var payload core.Reservation
		if !decode(w, r, &payload) {
			return
		}
		payload.Key = rest[0]
		updated, res, err := h.Service.SaveReservation(r.Context(), payload)
		h.respondMutation(w, http.StatusOK, map[string]any{"reservation": updated}, res, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		res, err := h.Service.DeleteReservation(r.Context(), rest[0])
		h.respondMutation(w, http.StatusOK, map[string]any{"deleted": rest[0]}, res, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) transfers(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := parseQuery(r.URL.Query())
		out := make([]core.Transfer, 0)
		for _, tr := range h.Service.ListTransfers(q.tenant) {
			if !q.matches(tr.Index, tr.Tags) || !core.MatchCategory(tr.Kind, q.category) || !core.MatchYear(tr.Date, q.year) {
				continue
			}
			out = append(out, tr)
		}
		writeJSON(w, http.StatusOK, map[string]any{"transfers": out})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var payload core.Transfer
		if !decode(w, r, &payload) {
			return
		}
		created, res, err := h.Service.CreateTransfer(r.Context(), payload)
		h.respondMutation(w, http.StatusCreated, map[string]any{"transfer": created}, res, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var payload core.Transfer
		if !decode(w, r, &payload) {
			return
		}
		payload.Key = rest[0]
		updated, res, err := h.Service.SaveTransfer(r.Context(), payload)
		h.respondMutation(w, http.StatusOK, map[string]any{"transfer": updated}, res, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		res, err := h.Service.DeleteTransfer(r.Context(), rest[0])
		h.respondMutation(w, http.StatusOK, map[string]any{"deleted": rest[0]}, res, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func parseEndDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	d := r.URL.Query().Get("date")
	if d == "" {
		writeError(w, http.StatusBadRequest, "date query parameter required")
		return time.Time{}, false
	}
	asOf, err := time.Parse(time.DateOnly, d)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return asOf, true
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// respondMutation maps service outcomes onto HTTP statuses. Blocking rule
// violations surface as 422 with the violation list; other failures as 400.
func (h *Handler) respondMutation(w http.ResponseWriter, okStatus int, payload map[string]any, res core.Result, err error) {
	if err != nil {
		var rve core.RuleViolationError
		if errors.As(err, &rve) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      "blocked by rules",
				"violations": rve.Result.Violations,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if warnings := res.Warnings(); len(warnings) > 0 {
		payload["warnings"] = warnings
	}
	writeJSON(w, okStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
