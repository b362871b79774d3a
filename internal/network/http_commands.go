// Package network - http_commands.go
// REST bridge for tools that cannot hold a WebSocket open.
package network

import (
	"encoding/json"
	"net/http"

	"github.com/MRamiBalles/heatcity/internal/platform/logger"
)

// CommandHandler runs the same commands as the WebSocket surface, one per request.
type CommandHandler struct {
	router *Router
	logger *logger.Logger
}

func NewCommandHandler(router *Router, log *logger.Logger) *CommandHandler {
	return &CommandHandler{router: router, logger: log}
}

// HandleCommand runs a posted command.
// POST /api/command {"type": "USE_POWER", "persona": "per.mask", "power": "pwr.kinetic"}
func (h *CommandHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cmd Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&cmd); err != nil {
		jsonError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	reply := h.router.Handle(r.Context(), cmd)
	if reply.Type == ReplyError {
		status := http.StatusBadRequest
		if reply.Error == errDevOnly.Error() {
			status = http.StatusForbidden
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(reply)
		return
	}
	writeJSON(w, reply)
}

// HandleStatus returns the world summary.
// GET /api/status
func (h *CommandHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.router.Handle(r.Context(), Command{Type: CmdStatus}))
}
