package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/format"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/tokenizer"

	"github.com/anthropics/anthropic-sdk-go"
)

var _ provider.Provider = (*Client)(nil)

const defaultMaxTokens = 4096

type Client struct {
	cfg Config

	messages anthropic.MessageService
}

func New(cfg Config) (*Client, error) {
	return &Client{
		cfg: cfg,

		messages: anthropic.NewMessageService(cfg.options()...),
	}, nil
}

// Creator adapts New to the factory contract. The incoming config must be
// the Claude variant; anything else is a programming error in the caller.
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

	// The local estimate precedes the network call and is independent of
	// whatever the vendor reports.
	estimatedInput := counter.CountWithFormatting(req.Messages, req.System)

	req = req.Clone()
	format.EnhanceRequest(req)

	params, err := convertRequest(model, req)

	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout.Read())
	defer cancel()

	message, err := c.messages.New(ctx, *params)

	if err != nil {
		return nil, convertError(err)
	}

	resp := convertResponse(message, model, req.Params.Format)

	resp.EstimatedInputTokens = estimatedInput
	resp.EstimatedOutputTokens = counter.Count(resp.Content)

	return resp, nil
}

// Models returns the static catalog: the messages API has no listing
// endpoint, so capabilities are hardcoded rather than fetched.
func (c *Client) Models(ctx context.Context) ([]provider.Model, error) {
	return []provider.Model{
		{
			ID: "claude-sonnet-4-5",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 64000,
			ContextWindow:   200000,
		},
		{
			ID: "claude-haiku-4-5",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 64000,
			ContextWindow:   200000,
		},
		{
			ID: "claude-opus-4-1",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 32000,
			ContextWindow:   200000,
		},
		{
			ID: "claude-3-5-haiku-latest",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 8192,
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
		return fault.Validation("invalid anthropic configuration", reasons...)
	}

	return nil
}

// convertRequest maps the domain request onto the messages API. The API has
// no system role in the message list: the system prompt and any system-role
// messages become system text blocks, in conversation order.
func convertRequest(model string, req *provider.Request) (*anthropic.MessageNewParams, error) {
	params := &anthropic.MessageNewParams{
		Model: anthropic.Model(model),

		MaxTokens: defaultMaxTokens,
	}

	if req.Params.MaxTokens != nil {
		params.MaxTokens = int64(*req.Params.MaxTokens)
	}

	if req.Params.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Params.Temperature))
	}

	if req.Params.TopP != nil {
		params.TopP = anthropic.Float(float64(*req.Params.TopP))
	}

	if req.Params.TopK != nil {
		params.TopK = anthropic.Int(int64(*req.Params.TopK))
	}

	if len(req.Params.Stop) > 0 {
		params.StopSequences = req.Params.Stop
	}

	var system []anthropic.TextBlockParam

	if req.System != "" {
		system = append(system, anthropic.TextBlockParam{Text: req.System})
	}

	for _, m := range req.Messages {
		if m.Role == provider.MessageRoleSystem {
			if text := m.Text(); text != "" {
				system = append(system, anthropic.TextBlockParam{Text: text})
			}
		}
	}

	var messages []anthropic.MessageParam

	for _, m := range req.Messages {
		switch m.Role {
		case provider.MessageRoleSystem:
			continue // collected above

		case provider.MessageRoleUser:
			var blocks []anthropic.ContentBlockParamUnion

			for _, c := range m.Content {
				if c.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(c.Text))
				}

				if c.File != nil {
					mime := c.File.ContentType
					content := base64.StdEncoding.EncodeToString(c.File.Content)

					switch mime {
					case "image/jpeg", "image/png", "image/gif", "image/webp":
						blocks = append(blocks, anthropic.NewImageBlock(anthropic.Base64ImageSourceParam{
							Data:      content,
							MediaType: anthropic.Base64ImageSourceMediaType(mime),
						}))

					default:
						return nil, fault.Validation("invalid request", "unsupported content type "+mime)
					}
				}

				if c.ToolResult != nil {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolResult: &anthropic.ToolResultBlockParam{
							ToolUseID: c.ToolResult.ID,

							Content: []anthropic.ToolResultBlockParamContentUnion{
								{
									OfText: &anthropic.TextBlockParam{
										Text: c.ToolResult.Data,
									},
								},
							},
						},
					})
				}
			}

			if len(blocks) == 0 {
				continue
			}

			messages = append(messages, anthropic.NewUserMessage(blocks...))

		case provider.MessageRoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion

			for _, c := range m.Content {
				if c.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(c.Text))
				}
			}

			if len(blocks) == 0 {
				continue
			}

			messages = append(messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})
		}
	}

	if len(system) > 0 {
		params.System = system
	}

	params.Messages = messages

	return params, nil
}

func convertResponse(message *anthropic.Message, model string, f provider.Format) *provider.Response {
	var parts []string
	var toolUses []provider.ToolUse

	for _, block := range message.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			if block.Text != "" {
				parts = append(parts, block.Text)
			}

		case anthropic.ToolUseBlock:
			use, ok := toToolUse(block.ID, block.Name, block.Input)

			if !ok {
				continue // partial or malformed blocks are dropped, not errored
			}

			toolUses = append(toolUses, use)
		}
	}

	content := format.Clean(f, strings.Join(parts, "\n\n"))

	resp := &provider.Response{
		ID: message.ID,

		Model: string(message.Model),

		Role:    provider.MessageRoleAssistant,
		Content: content,

		Reason: toFinishReason(string(message.StopReason)),

		ToolUses: toolUses,

		Timestamp: time.Now(),
	}

	if resp.Model == "" {
		resp.Model = model
	}

	if usage := toUsage(message.Usage); usage != nil {
		resp.Usage = usage
	}

	return resp
}

func toToolUse(id, name string, input json.RawMessage) (provider.ToolUse, bool) {
	if id == "" || name == "" || len(input) == 0 {
		return provider.ToolUse{}, false
	}

	var args map[string]any

	if err := json.Unmarshal(input, &args); err != nil || args == nil {
		return provider.ToolUse{}, false
	}

	return provider.ToolUse{
		ID: id,

		Name:  name,
		Input: args,
	}, true
}

// toFinishReason maps the vendor stop reasons onto the domain variants.
// Unrecognized reasons default to stop.
func toFinishReason(reason string) provider.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return provider.FinishReasonStop

	case "max_tokens":
		return provider.FinishReasonMaxTokens

	case "tool_use":
		return provider.FinishReasonToolUse

	case "refusal":
		return provider.FinishReasonContentFilter

	default:
		return provider.FinishReasonStop
	}
}

func toUsage(usage anthropic.Usage) *provider.Usage {
	if usage.InputTokens == 0 && usage.OutputTokens == 0 {
		return nil
	}

	return &provider.Usage{
		InputTokens:  int(usage.InputTokens),
		OutputTokens: int(usage.OutputTokens),
	}
}

func convertError(err error) error {
	var apierr *anthropic.Error

	if errors.As(err, &apierr) {
		return fault.Wrap(fault.KindNetwork, err, "anthropic request failed with status %d", apierr.StatusCode)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindNetwork, err, "anthropic request cancelled")
	}

	return fault.Wrap(fault.KindNetwork, err, "anthropic request failed")
}
