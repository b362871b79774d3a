// Package network - replay.go
// Replay endpoints: JSON export of the resolved event history and the recap.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/infra/storage"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
)

// ReplayHandler serves the event history. It reads the durable audit trail
// when one is configured and falls back to the in-memory recent log.
type ReplayHandler struct {
	audit  storage.AuditReader
	recent *events.Log
	logger *logger.Logger
}

func NewReplayHandler(audit storage.AuditReader, recent *events.Log, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{audit: audit, recent: recent, logger: log}
}

// ReplayResponse is the API response for a replay query.
type ReplayResponse struct {
	From        uint64            `json:"from"`
	To          uint64            `json:"to"`
	Kind        events.Kind       `json:"kind,omitempty"`
	Source      string            `json:"source"` // audit or recent
	TotalEvents int               `json:"total_events"`
	GeneratedAt string            `json:"generated_at"`
	Events      []events.Envelope `json:"events"`
}

// HandleReplay returns envelopes for a tick range.
// GET /api/replay?from=N&to=M&kind=FACTION
func (h *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	from, err := parseTick(q.Get("from"), 0)
	if err != nil {
		jsonError(w, "Invalid from", http.StatusBadRequest)
		return
	}
	to, err := parseTick(q.Get("to"), ^uint64(0)>>1)
	if err != nil || to < from {
		jsonError(w, "Invalid to", http.StatusBadRequest)
		return
	}
	kind := events.Kind(q.Get("kind"))

	resp := ReplayResponse{From: from, To: to, Kind: kind, GeneratedAt: time.Now().Format(time.RFC3339)}
	if h.audit != nil {
		recs, err := h.audit.EventsBetween(r.Context(), from, to)
		if err != nil {
			h.logger.Error("replay query failed: " + err.Error())
			jsonError(w, "Audit trail unavailable", http.StatusInternalServerError)
			return
		}
		resp.Source = "audit"
		for _, rec := range recs {
			if kind == "" || rec.Envelope.Kind() == kind {
				resp.Events = append(resp.Events, rec.Envelope)
			}
		}
	} else if h.recent != nil {
		resp.Source = "recent"
		for _, env := range h.recent.Replay() {
			if env.Tick >= from && env.Tick <= to && (kind == "" || env.Kind() == kind) {
				resp.Events = append(resp.Events, env)
			}
		}
	}
	resp.TotalEvents = len(resp.Events)

	h.logger.Event("REPLAY", "API", "from="+strconv.FormatUint(from, 10)+" events="+strconv.Itoa(resp.TotalEvents))
	writeJSON(w, resp)
}

// HandleRecap summarizes notable events since a tick.
// GET /api/recap?since=N&actor=actor.player
func (h *ReplayHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.audit == nil {
		jsonError(w, "Recap needs the audit trail", http.StatusNotFound)
		return
	}
	since, err := parseTick(r.URL.Query().Get("since"), 0)
	if err != nil {
		jsonError(w, "Invalid since", http.StatusBadRequest)
		return
	}
	last, ok, err := h.audit.LastTick(r.Context())
	if err != nil {
		jsonError(w, "Audit trail unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		writeJSON(w, []storage.RecapEvent{})
		return
	}
	recap, err := storage.NewReconstructor(h.audit).Recap(r.Context(), since, last, ids.ActorID(r.URL.Query().Get("actor")))
	if err != nil {
		h.logger.Error("recap failed: " + err.Error())
		jsonError(w, "Audit trail unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, recap)
}

func parseTick(raw string, fallback uint64) (uint64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
