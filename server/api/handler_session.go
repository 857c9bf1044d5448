package api

import (
	"net/http"

	"github.com/relaygw/relay/pkg/session"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context())

	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]SessionResponse, 0, len(sessions))

	for _, s := range sessions {
		result = append(result, toSessionResponse(s, false))
	}

	writeJson(w, result)
}

func (h *Handler) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.sessions.Get(r.Context(), id)

	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, toSessionResponse(*s, true))
}

func (h *Handler) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toSessionResponse(s session.Session, includeMessages bool) SessionResponse {
	result := SessionResponse{
		ID: s.ID,

		Title: s.Title,

		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}

	if includeMessages {
		for _, m := range s.Messages {
			result.Messages = append(result.Messages, MessageResponse{
				Role:    m.Role,
				Content: m.Content,

				Timestamp: m.CreatedAt,
			})
		}
	}

	return result
}
