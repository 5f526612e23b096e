package runtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/loqalabs/loqa-sign/internal/accumulator"
	"github.com/loqalabs/loqa-sign/internal/eventstore"
	"github.com/loqalabs/loqa-sign/internal/health"
	"github.com/loqalabs/loqa-sign/internal/scheduler"
	"github.com/loqalabs/loqa-sign/internal/session"
	"github.com/loqalabs/loqa-sign/internal/translation"
)

// StateResponse is the payload of GET /api/state.
type StateResponse struct {
	session.Snapshot
	Connection      string `json:"connection"`
	ConnectionLabel string `json:"connection_label"`
	Detection       bool   `json:"detection_enabled"`
	Camera          bool   `json:"camera_enabled"`
	Capturing       bool   `json:"capturing"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type letterRequest struct {
	Letter string `json:"letter"`
}

type letterResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Text     string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// api serves the presentation surface over the pipeline components.
type api struct {
	state      *session.Store
	acc        *accumulator.Machine
	sched      *scheduler.Scheduler
	monitor    *health.Monitor
	translator *translation.Manager
	events     *eventstore.Store
	log        *slog.Logger
}

func (a *api) routes(r *mux.Router) {
	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/state", a.handleState).Methods(http.MethodGet)
	s.HandleFunc("/clear", a.handleClear).Methods(http.MethodPost)
	s.HandleFunc("/translate", a.handleTranslate).Methods(http.MethodPost)
	s.HandleFunc("/detection", a.handleDetection).Methods(http.MethodPut)
	s.HandleFunc("/camera", a.handleCamera).Methods(http.MethodPut)
	s.HandleFunc("/letters", a.handleLetter).Methods(http.MethodPost)
	s.HandleFunc("/events", a.handleEvents).Methods(http.MethodGet)
	s.HandleFunc("/sessions/{id}/events", a.handleEvents).Methods(http.MethodGet)
}

func (a *api) snapshot() StateResponse {
	conn := a.monitor.State()
	return StateResponse{
		Snapshot:        a.state.Snapshot(),
		Connection:      conn.String(),
		ConnectionLabel: conn.Label(),
		Detection:       a.sched.Enabled(),
		Camera:          a.sched.CameraEnabled(),
		Capturing:       a.sched.Running(),
	}
}

func (a *api) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.snapshot())
}

func (a *api) handleClear(w http.ResponseWriter, _ *http.Request) {
	a.acc.Clear()
	writeJSON(w, http.StatusOK, a.snapshot())
}

func (a *api) handleTranslate(w http.ResponseWriter, r *http.Request) {
	err := a.translator.TranslateAsync(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, a.snapshot())
	case errors.Is(err, translation.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, translation.ErrNothingToTranslate):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		a.log.Error("translate failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (a *api) handleDetection(w http.ResponseWriter, r *http.Request) {
	enabled, ok := decodeToggle(w, r)
	if !ok {
		return
	}
	a.sched.SetEnabled(enabled)
	writeJSON(w, http.StatusOK, a.snapshot())
}

func (a *api) handleCamera(w http.ResponseWriter, r *http.Request) {
	enabled, ok := decodeToggle(w, r)
	if !ok {
		return
	}
	a.sched.SetCameraEnabled(enabled)
	writeJSON(w, http.StatusOK, a.snapshot())
}

func (a *api) handleLetter(w http.ResponseWriter, r *http.Request) {
	var req letterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	if strings.TrimSpace(req.Letter) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "letter is required"})
		return
	}
	decision := a.acc.AddLetter(r.Context(), req.Letter)
	writeJSON(w, http.StatusOK, letterResponse{
		Accepted: decision.Accepted,
		Reason:   string(decision.Reason),
		Text:     a.state.Text(),
	})
}

func (a *api) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if sessionID == "" {
		sessionID = a.state.ID()
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	entries, err := a.events.ListSession(r.Context(), sessionID, limit)
	if err != nil {
		a.log.Error("list events failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read events"})
		return
	}
	if entries == nil {
		entries = []eventstore.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func decodeToggle(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `body must be {"enabled": bool}`})
		return false, false
	}
	return *req.Enabled, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
