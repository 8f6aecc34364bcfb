package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/exercise"
)

// Session is the part of the running app the control endpoints drive.
type Session interface {
	Status() app.Status
	SetEnabled(enabled bool)
	SwitchExercise(kind exercise.Kind) error
}

// ControlHandler reports and changes the live session:
//
//	GET  /api/status
//	POST /api/control  {"enabled": false, "exercise": "curl"}
type ControlHandler struct {
	session Session
}

// NewControlHandler creates a ControlHandler for s.
func NewControlHandler(s Session) *ControlHandler {
	return &ControlHandler{session: s}
}

type controlRequest struct {
	Enabled  *bool  `json:"enabled"`
	Exercise string `json:"exercise"`
}

// Status handles GET /api/status.
func (h *ControlHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Status())
}

// Control handles POST /api/control. Omitted fields are left unchanged.
func (h *ControlHandler) Control(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Exercise != "" {
		kind, err := exercise.ParseKind(req.Exercise)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.session.SwitchExercise(kind); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, exercise.ErrUnknownKind) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
	}
	if req.Enabled != nil {
		h.session.SetEnabled(*req.Enabled)
	}

	writeJSON(w, http.StatusOK, h.session.Status())
}
