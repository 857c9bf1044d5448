// Package huggingface speaks the HuggingFace inference router directly over
// HTTP. Unlike the SDK-backed providers, the wire mapping, auth headers and
// vendor error parsing are handled here explicitly.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/format"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/tokenizer"
)

var _ provider.Provider = (*Client)(nil)

// Config is the HuggingFace variant of the provider configuration.
type Config struct {
	APIKey  string
	BaseURL string

	Timeout provider.Timeout

	DefaultModel string

	Client *http.Client
}

type Client struct {
	cfg Config

	url    string
	client *http.Client
}

func New(cfg Config) (*Client, error) {
	url := cfg.BaseURL

	if url == "" {
		url = "https://router.huggingface.co"
	}

	client := cfg.Client

	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		cfg: cfg,

		url:    strings.TrimRight(url, "/") + "/v1/chat/completions",
		client: client,
	}, nil
}

func Creator(config any) (provider.Provider, error) {
	return New(config.(Config))
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`

	Temperature      *float32 `json:"temperature,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	TopP             *float32 `json:"top_p,omitempty"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float32 `json:"presence_penalty,omitempty"`

	Stop []string `json:"stop,omitempty"`

	Stream bool `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID    string `json:"id"`
	Model string `json:"model"`

	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`

			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`

		FinishReason string `json:"finish_reason"`
	} `json:"choices"`

	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
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

	payload := convertRequest(model, req)

	body, err := json.Marshal(payload)

	if err != nil {
		return nil, fault.Wrap(fault.KindParse, err, "marshal huggingface request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout.Read())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))

	if err != nil {
		return nil, fault.Wrap(fault.KindNetwork, err, "build huggingface request")
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.client.Do(httpReq)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fault.Wrap(fault.KindNetwork, err, "huggingface request cancelled")
		}

		return nil, fault.Wrap(fault.KindNetwork, err, "huggingface request failed")
	}

	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)

	if err != nil {
		return nil, fault.Wrap(fault.KindNetwork, err, "read huggingface response")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, parseVendorError(httpResp.StatusCode, raw)
	}

	var vendor chatResponse

	if err := json.Unmarshal(raw, &vendor); err != nil {
		return nil, fault.Wrap(fault.KindParse, err, "malformed huggingface response body")
	}

	if len(vendor.Choices) == 0 {
		return nil, fault.Parse("huggingface response carried no choices")
	}

	resp := convertResponse(&vendor, model, req.Params.Format)

	resp.EstimatedInputTokens = estimatedInput
	resp.EstimatedOutputTokens = counter.Count(resp.Content)

	return resp, nil
}

func (c *Client) Models(ctx context.Context) ([]provider.Model, error) {
	return []provider.Model{
		{
			ID: "meta-llama/Llama-3.3-70B-Instruct",

			Streaming: true,

			MaxOutputTokens: 8192,
			ContextWindow:   128000,
		},
		{
			ID: "mistralai/Mistral-7B-Instruct-v0.3",

			Streaming: true,

			MaxOutputTokens: 4096,
			ContextWindow:   32768,
		},
		{
			ID: "Qwen/Qwen2.5-72B-Instruct",

			Streaming: true,

			MaxOutputTokens: 8192,
			ContextWindow:   131072,
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
		return fault.Validation("invalid huggingface configuration", reasons...)
	}

	return nil
}

// convertRequest flattens roles to the router's vocabulary. This endpoint
// gets no dedicated system channel from us: the system prompt and any
// system-role messages are folded into the user role, preserving order.
func convertRequest(model string, req *provider.Request) *chatRequest {
	payload := &chatRequest{
		Model: model,

		Temperature:      req.Params.Temperature,
		MaxTokens:        req.Params.MaxTokens,
		TopP:             req.Params.TopP,
		FrequencyPenalty: req.Params.FrequencyPenalty,
		PresencePenalty:  req.Params.PresencePenalty,

		Stop: req.Params.Stop,
	}

	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{
			Role:    "user",
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		text := m.Text()

		if text == "" {
			continue
		}

		role := "user"

		if m.Role == provider.MessageRoleAssistant {
			role = "assistant"
		}

		payload.Messages = append(payload.Messages, chatMessage{
			Role:    role,
			Content: text,
		})
	}

	return payload
}

func convertResponse(vendor *chatResponse, model string, f provider.Format) *provider.Response {
	choice := vendor.Choices[0]

	var toolUses []provider.ToolUse

	for _, call := range choice.Message.ToolCalls {
		if call.ID == "" || call.Function.Name == "" || call.Function.Arguments == "" {
			continue
		}

		var args map[string]any

		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args == nil {
			continue
		}

		toolUses = append(toolUses, provider.ToolUse{
			ID: call.ID,

			Name:  call.Function.Name,
			Input: args,
		})
	}

	resp := &provider.Response{
		ID: vendor.ID,

		Model: vendor.Model,

		Role:    provider.MessageRoleAssistant,
		Content: format.Clean(f, choice.Message.Content),

		Reason: toFinishReason(choice.FinishReason),

		ToolUses: toolUses,

		Timestamp: time.Now(),
	}

	if resp.Model == "" {
		resp.Model = model
	}

	if vendor.Usage.PromptTokens > 0 || vendor.Usage.CompletionTokens > 0 {
		resp.Usage = &provider.Usage{
			InputTokens:  vendor.Usage.PromptTokens,
			OutputTokens: vendor.Usage.CompletionTokens,
		}
	}

	return resp
}

func toFinishReason(reason string) provider.FinishReason {
	switch reason {
	case "stop", "eos_token":
		return provider.FinishReasonStop

	case "length":
		return provider.FinishReasonMaxTokens

	case "content_filter":
		return provider.FinishReasonContentFilter

	case "tool_calls":
		return provider.FinishReasonToolUse

	default:
		return provider.FinishReasonStop
	}
}

// parseVendorError extracts the vendor's structured error message. The
// error envelope comes in both string and object shapes; if neither parses
// the raw status and body are embedded instead. A parse failure of the
// error body itself never crashes the call path.
func parseVendorError(status int, body []byte) error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var message string

		if err := json.Unmarshal(envelope.Error, &message); err == nil && message != "" {
			return fault.Network("huggingface request failed with status %d: %s", status, message)
		}

		var detail struct {
			Message string `json:"message"`
		}

		if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
			return fault.Network("huggingface request failed with status %d: %s", status, detail.Message)
		}
	}

	return fault.Network("huggingface request failed with status %d: %s", status, strings.TrimSpace(string(body)))
}
