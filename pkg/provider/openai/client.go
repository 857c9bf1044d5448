package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/format"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/tokenizer"

	"github.com/openai/openai-go/v3"
)

var _ provider.Provider = (*Client)(nil)

type Client struct {
	cfg Config

	completions openai.ChatCompletionService
}

func New(cfg Config) (*Client, error) {
	return &Client{
		cfg: cfg,

		completions: openai.NewChatCompletionService(cfg.options()...),
	}, nil
}

func Creator(config any) (provider.Provider, error) {
	return New(config.(Config))
}

func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fault.Validation("invalid request", "at least one message is required")
	}

	model := req.Model

	if model == "" {
		model = c.cfg.DefaultModel
	}

	counter := tokenizer.ForModel(model)
	estimatedInput := counter.CountWithFormatting(req.Messages, req.System)

	req = req.Clone()
	format.EnhanceRequest(req)

	params, err := convertRequest(model, req)

	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout.Read())
	defer cancel()

	completion, err := c.completions.New(ctx, *params)

	if err != nil {
		return nil, convertError(err)
	}

	if len(completion.Choices) == 0 {
		return nil, fault.Parse("openai response carried no choices")
	}

	resp := convertResponse(completion, model, req.Params.Format)

	resp.EstimatedInputTokens = estimatedInput
	resp.EstimatedOutputTokens = counter.Count(resp.Content)

	return resp, nil
}

func (c *Client) Models(ctx context.Context) ([]provider.Model, error) {
	return []provider.Model{
		{
			ID: "gpt-4o",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 16384,
			ContextWindow:   128000,
		},
		{
			ID: "gpt-4o-mini",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 16384,
			ContextWindow:   128000,
		},
		{
			ID: "gpt-4.1",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 32768,
			ContextWindow:   1047576,
		},
		{
			ID: "o3-mini",

			Vision:    false,
			Streaming: true,

			MaxOutputTokens: 100000,
			ContextWindow:   200000,
		},
	}, nil
}

func (c *Client) Validate() error {
	var reasons []string

	if strings.TrimSpace(c.cfg.APIKey) == "" {
		reasons = append(reasons, "api key must not be blank")
	}

	if c.cfg.BaseURL != "" && !strings.HasPrefix(c.cfg.BaseURL, "https://") {
		reasons = append(reasons, "base url must use https")
	}

	if len(reasons) > 0 {
		return fault.Validation("invalid openai configuration", reasons...)
	}

	return nil
}

// convertRequest maps the domain request onto chat completions. The API has
// a native system role, so the system prompt leads the message list and
// system-role messages keep their role.
func convertRequest(model string, req *provider.Request) (*openai.ChatCompletionNewParams, error) {
	params := &openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
	}

	if req.Params.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.Params.MaxTokens))
	}

	if req.Params.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Params.Temperature))
	}

	if req.Params.TopP != nil {
		params.TopP = openai.Float(float64(*req.Params.TopP))
	}

	if req.Params.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(float64(*req.Params.FrequencyPenalty))
	}

	if req.Params.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(float64(*req.Params.PresencePenalty))
	}

	if len(req.Params.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: req.Params.Stop,
		}
	}

	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		text := m.Text()

		for _, c := range m.Content {
			if c.File != nil {
				return nil, fault.Validation("invalid request", "unsupported content type "+c.File.ContentType)
			}
		}

		switch m.Role {
		case provider.MessageRoleSystem:
			if text != "" {
				messages = append(messages, openai.SystemMessage(text))
			}

		case provider.MessageRoleUser:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}

		case provider.MessageRoleAssistant:
			if text != "" {
				messages = append(messages, openai.AssistantMessage(text))
			}
		}
	}

	params.Messages = messages

	return params, nil
}

func convertResponse(completion *openai.ChatCompletion, model string, f provider.Format) *provider.Response {
	choice := completion.Choices[0]

	var toolUses []provider.ToolUse

	for _, call := range choice.Message.ToolCalls {
		use, ok := toToolUse(call.ID, call.Function.Name, call.Function.Arguments)

		if !ok {
			continue
		}

		toolUses = append(toolUses, use)
	}

	resp := &provider.Response{
		ID: completion.ID,

		Model: completion.Model,

		Role:    provider.MessageRoleAssistant,
		Content: format.Clean(f, choice.Message.Content),

		Reason: toFinishReason(string(choice.FinishReason)),

		ToolUses: toolUses,

		Timestamp: time.Now(),
	}

	if resp.Model == "" {
		resp.Model = model
	}

	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		resp.Usage = &provider.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		}
	}

	return resp
}

func toToolUse(id, name, arguments string) (provider.ToolUse, bool) {
	if id == "" || name == "" || arguments == "" {
		return provider.ToolUse{}, false
	}

	var args map[string]any

	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args == nil {
		return provider.ToolUse{}, false
	}

	return provider.ToolUse{
		ID: id,

		Name:  name,
		Input: args,
	}, true
}

func toFinishReason(reason string) provider.FinishReason {
	switch reason {
	case "stop":
		return provider.FinishReasonStop

	case "length":
		return provider.FinishReasonMaxTokens

	case "content_filter":
		return provider.FinishReasonContentFilter

	case "tool_calls", "function_call":
		return provider.FinishReasonToolUse

	default:
		return provider.FinishReasonStop
	}
}

func convertError(err error) error {
	var apierr *openai.Error

	if errors.As(err, &apierr) {
		return fault.Wrap(fault.KindNetwork, err, "openai request failed with status %d", apierr.StatusCode)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindNetwork, err, "openai request cancelled")
	}

	return fault.Wrap(fault.KindNetwork, err, "openai request failed")
}
