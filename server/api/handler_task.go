package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/task"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid task request", err.Error()))
		return
	}

	def, err := h.tasks.Add(r.Context(), task.Definition{
		Title: req.Title,

		Request: req.Request,

		Interval: time.Duration(req.IntervalSeconds) * time.Second,

		ExecuteImmediately: req.ExecuteImmediately,

		Provider: req.Provider,
		Model:    req.Model,
	})

	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.tasks.Get(r.Context(), def.ID)

	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	writeJson(w, toTaskResponse(status))
}

func (h *Handler) handleTaskList(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.tasks.List(r.Context())

	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]TaskResponse, 0, len(statuses))

	for _, s := range statuses {
		result = append(result, toTaskResponse(s))
	}

	writeJson(w, result)
}

func (h *Handler) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := h.tasks.Get(r.Context(), id)

	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, toTaskResponse(status))
}

func (h *Handler) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.tasks.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toTaskResponse(s task.Status) TaskResponse {
	return TaskResponse{
		ID: s.Definition.ID,

		Title: s.Definition.Title,

		Request: s.Definition.Request,

		IntervalSeconds: int(s.Definition.Interval / time.Second),

		ExecuteImmediately: s.Definition.ExecuteImmediately,

		Provider: s.Definition.Provider,
		Model:    s.Definition.Model,

		SessionID: s.SessionID,

		Running: s.Running,

		SecondsUntilNextExecution: s.SecondsUntilNextExecution,

		CreatedAt: s.Definition.CreatedAt,
	}
}
