package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/report"
	"github.com/ayusman/formcheck/internal/store"
)

const (
	sessionsPrefix = "/api/sessions"

	defaultListLimit = 50
	maxListLimit     = 1000
)

// SessionHandler serves stored sessions and their reps:
//
//	GET    /api/sessions?limit=N
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/reps
//	GET    /api/sessions/{id}/reps.csv
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a SessionHandler backed by s.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

type listRepsResponse struct {
	SessionID string             `json:"session_id"`
	Reps      []*store.RepRecord `json:"reps"`
}

// ServeHTTP routes on the path below /api/sessions.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, sessionsPrefix)
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.get(w, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.delete(w, id)
	case sub == "reps" && r.Method == http.MethodGet:
		h.reps(w, id)
	case sub == "reps.csv" && r.Method == http.MethodGet:
		h.repsCSV(w, id)
	case sub == "" || sub == "reps" || sub == "reps.csv":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		log.WithError(err).Error("api: list sessions")
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

func (h *SessionHandler) get(w http.ResponseWriter, id string) {
	sess, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) delete(w http.ResponseWriter, id string) {
	err := h.store.Sessions().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.WithError(err).WithField("session", id).Error("api: delete session")
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) reps(w http.ResponseWriter, id string) {
	reps, ok := h.listReps(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, listRepsResponse{SessionID: id, Reps: reps})
}

// repsCSV exports a session in the training log format.
func (h *SessionHandler) repsCSV(w http.ResponseWriter, id string) {
	reps, ok := h.listReps(w, id)
	if !ok {
		return
	}

	rows := make([]report.Row, 0, len(reps))
	for _, rep := range reps {
		rows = append(rows, report.Row{
			Exercise: rep.Exercise,
			Reps:     rep.RepNumber,
			State:    rep.Phase,
			Angle:    rep.Angle,
			RPM:      rep.RPM,
			Feedback: rep.Feedback,
		})
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.csv"`, id))
	if err := report.Write(w, rows); err != nil {
		log.WithError(err).WithField("session", id).Warn("api: write csv")
	}
}

func (h *SessionHandler) lookup(w http.ResponseWriter, id string) (*store.Session, bool) {
	sess, err := h.store.Sessions().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	if err != nil {
		log.WithError(err).WithField("session", id).Error("api: get session")
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) listReps(w http.ResponseWriter, id string) ([]*store.RepRecord, bool) {
	if _, ok := h.lookup(w, id); !ok {
		return nil, false
	}
	reps, err := h.store.Reps().ListBySession(id)
	if err != nil {
		log.WithError(err).WithField("session", id).Error("api: list reps")
		writeError(w, http.StatusInternalServerError, "Failed to list reps")
		return nil, false
	}
	return reps, true
}
