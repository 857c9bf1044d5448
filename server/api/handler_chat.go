package api

import (
	"encoding/json"
	"net/http"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/session"
)

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid chat request", err.Error()))
		return
	}

	if req.Message == "" {
		writeError(w, fault.Validation("invalid chat request", "message must not be blank"))
		return
	}

	completer, ok := h.Completer(req.Provider)

	if !ok {
		writeError(w, fault.UnsupportedProvider(req.Provider))
		return
	}

	var sess *session.Session

	if req.SessionID != "" {
		s, err := h.sessions.Get(ctx, req.SessionID)

		if err != nil {
			writeError(w, err)
			return
		}

		sess = s
	} else {
		s, err := h.sessions.Create(ctx, req.Message)

		if err != nil {
			writeError(w, err)
			return
		}

		sess = s
	}

	messages := toMessages(sess.Messages)
	messages = append(messages, provider.UserMessage(req.Message))

	if h.compress != nil {
		compressed, err := h.compress.Compress(ctx, messages)

		if err != nil {
			writeError(w, err)
			return
		}

		messages = compressed
	}

	pr := &provider.Request{
		Model: req.Model,

		Messages: messages,

		System: req.System,

		Params: provider.Parameters{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,

			Format: provider.Format(req.Format),
		},

		SessionID: sess.ID,
	}

	resp, err := completer.Complete(ctx, pr)

	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.Append(ctx, sess.ID, string(provider.MessageRoleUser), req.Message); err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.Append(ctx, sess.ID, string(provider.MessageRoleAssistant), resp.Content); err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, toChatResponse(sess.ID, resp))
}

func toMessages(messages []session.Message) []provider.Message {
	converted := make([]provider.Message, 0, len(messages))

	for _, m := range messages {
		switch provider.MessageRole(m.Role) {
		case provider.MessageRoleSystem:
			converted = append(converted, provider.SystemMessage(m.Content))

		case provider.MessageRoleAssistant:
			converted = append(converted, provider.AssistantMessage(m.Content))

		default:
			converted = append(converted, provider.UserMessage(m.Content))
		}
	}

	return converted
}

func toChatResponse(sessionID string, resp *provider.Response) ChatResponse {
	result := ChatResponse{
		ID: resp.ID,

		SessionID: sessionID,

		Model: resp.Model,

		Content: resp.Content,

		FinishReason: string(resp.Reason),

		EstimatedInputTokens:  resp.EstimatedInputTokens,
		EstimatedOutputTokens: resp.EstimatedOutputTokens,

		Timestamp: resp.Timestamp,
	}

	if resp.Usage != nil {
		result.Usage = &UsageResponse{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens(),
		}
	}

	for _, t := range resp.ToolUses {
		result.ToolUses = append(result.ToolUses, ToolUseResponse{
			ID:    t.ID,
			Name:  t.Name,
			Input: t.Input,
		})
	}

	return result
}
