package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/relaygw/relay/config"
	"github.com/relaygw/relay/pkg/compressor"
	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/session"
	"github.com/relaygw/relay/pkg/task"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	*config.Config

	sessions *session.Store
	tasks    *task.Manager

	compress *compressor.Compressor
}

type Option func(*Handler)

func WithCompressor(c *compressor.Compressor) Option {
	return func(h *Handler) {
		h.compress = c
	}
}

func New(cfg *config.Config, sessions *session.Store, tasks *task.Manager, options ...Option) (*Handler, error) {
	h := &Handler{
		Config: cfg,

		sessions: sessions,
		tasks:    tasks,
	}

	for _, option := range options {
		option(h)
	}

	return h, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Post("/chat", h.handleChat)

	r.Get("/models", h.handleModels)

	r.Get("/sessions", h.handleSessionList)
	r.Get("/sessions/{id}", h.handleSessionGet)
	r.Delete("/sessions/{id}", h.handleSessionDelete)

	r.Post("/tasks", h.handleTaskCreate)
	r.Get("/tasks", h.handleTaskList)
	r.Get("/tasks/{id}", h.handleTaskGet)
	r.Delete("/tasks/{id}", h.handleTaskDelete)
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

// writeError renders a typed failure distinctly by kind, so a malformed
// document and a dead network stay distinguishable to the caller.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	var fe *fault.Error

	if errors.As(err, &fe) {
		switch fe.Kind {
		case fault.KindValidation:
			code = http.StatusBadRequest

		case fault.KindNotFound:
			code = http.StatusNotFound

		case fault.KindUnsupportedProvider:
			code = http.StatusBadRequest

		case fault.KindConfiguration:
			code = http.StatusInternalServerError

		case fault.KindNetwork:
			code = http.StatusBadGateway

		case fault.KindParse:
			code = http.StatusBadGateway

		case fault.KindStorage:
			code = http.StatusInternalServerError
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	resp := ErrorResponse{
		Kind:    string(fault.KindOf(err)),
		Message: err.Error(),
	}

	if fe != nil {
		resp.Reasons = fe.Reasons
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(resp)
}
