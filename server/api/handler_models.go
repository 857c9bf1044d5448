package api

import (
	"net/http"
)

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result := []ModelResponse{}

	for _, name := range h.ProviderNames() {
		p, ok := h.Provider(name)

		if !ok {
			continue
		}

		models, err := p.Models(ctx)

		if err != nil {
			writeError(w, err)
			return
		}

		for _, m := range models {
			result = append(result, ModelResponse{
				ID: m.ID,

				Provider: name,

				Vision:    m.Vision,
				Streaming: m.Streaming,

				MaxOutputTokens: m.MaxOutputTokens,
				ContextWindow:   m.ContextWindow,
			})
		}
	}

	writeJson(w, result)
}
