package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"musica/internal/api"
	"musica/internal/logging"
	"musica/internal/queue"
)

type apiHandler struct {
	daemon   *Daemon
	queueSvc *api.QueueService
	logger   *slog.Logger
}

func newAPIHandler(d *Daemon) *apiHandler {
	return &apiHandler{
		daemon:   d,
		queueSvc: api.NewQueueService(d.store),
		logger:   logging.NewComponentLogger(d.logger, "api"),
	}
}

func (h *apiHandler) status() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		status := h.daemon.Status(r.Context())
		payload := api.DaemonStatus{
			Running:      status.Running,
			PID:          status.PID,
			QueueDBPath:  status.QueueDBPath,
			LockFilePath: status.LockFilePath,
			SegmentMode:  status.SegmentMode,
			Scripts:      status.Scripts,
			Workflow:     api.FromStatusSummary(status.Workflow),
		}
		h.writeJSON(w, http.StatusOK, payload)
	})
}

func (h *apiHandler) queue() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var stages []queue.Stage
		for _, value := range r.URL.Query()["stage"] {
			if strings.TrimSpace(value) == "" {
				continue
			}
			st, err := queue.ParseStage(value)
			if err != nil {
				h.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			stages = append(stages, st)
		}
		var statuses []queue.Status
		for _, value := range r.URL.Query()["status"] {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			statuses = append(statuses, queue.Status(trimmed))
		}

		jobs, err := h.queueSvc.List(r.Context(), stages, statuses...)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if jobs == nil {
			jobs = []api.Job{}
		}
		h.writeJSON(w, http.StatusOK, api.QueueListResponse{Jobs: jobs})
	})
}

func (h *apiHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("api encode failed", logging.Error(err))
	}
}

func (h *apiHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
