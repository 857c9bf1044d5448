package google

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/format"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/tokenizer"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

var _ provider.Provider = (*Client)(nil)

// Config is the Gemini variant of the provider configuration.
type Config struct {
	APIKey  string
	BaseURL string

	Timeout provider.Timeout

	DefaultModel string

	Client *http.Client
}

type Client struct {
	cfg Config
}

func New(cfg Config) (*Client, error) {
	return &Client{
		cfg: cfg,
	}, nil
}

func Creator(config any) (provider.Provider, error) {
	return New(config.(Config))
}

func (c *Client) newClient(ctx context.Context) (*genai.Client, error) {
	config := &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,

		HTTPClient: c.cfg.Client,
	}

	return genai.NewClient(ctx, config)
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

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout.Read())
	defer cancel()

	client, err := c.newClient(ctx)

	if err != nil {
		return nil, fault.Wrap(fault.KindConfiguration, err, "gemini client setup failed")
	}

	contents, config := convertRequest(req)

	result, err := client.Models.GenerateContent(ctx, model, contents, config)

	if err != nil {
		return nil, convertError(err)
	}

	if len(result.Candidates) == 0 {
		return nil, fault.Parse("gemini response carried no candidates")
	}

	resp := convertResponse(result, model, req.Params.Format)

	resp.EstimatedInputTokens = estimatedInput
	resp.EstimatedOutputTokens = counter.Count(resp.Content)

	return resp, nil
}

func (c *Client) Models(ctx context.Context) ([]provider.Model, error) {
	return []provider.Model{
		{
			ID: "gemini-2.5-pro",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 65536,
			ContextWindow:   1048576,
		},
		{
			ID: "gemini-2.5-flash",

			Vision:    true,
			Streaming: true,

			MaxOutputTokens: 65536,
			ContextWindow:   1048576,
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
		return fault.Validation("invalid gemini configuration", reasons...)
	}

	return nil
}

// convertRequest maps roles onto the generate-content vocabulary: no system
// role in the turn list (system text becomes the system instruction) and
// assistants speak as "model".
func convertRequest(req *provider.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}

	var system []string

	if req.System != "" {
		system = append(system, req.System)
	}

	var contents []*genai.Content

	for _, m := range req.Messages {
		text := m.Text()

		if text == "" {
			continue
		}

		switch m.Role {
		case provider.MessageRoleSystem:
			system = append(system, text)

		case provider.MessageRoleUser:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))

		case provider.MessageRoleAssistant:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		}
	}

	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	if req.Params.Temperature != nil {
		config.Temperature = req.Params.Temperature
	}

	if req.Params.TopP != nil {
		config.TopP = req.Params.TopP
	}

	if req.Params.TopK != nil {
		topK := float32(*req.Params.TopK)
		config.TopK = &topK
	}

	if req.Params.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.Params.MaxTokens)
	}

	if len(req.Params.Stop) > 0 {
		config.StopSequences = req.Params.Stop
	}

	return contents, config
}

func convertResponse(result *genai.GenerateContentResponse, model string, f provider.Format) *provider.Response {
	candidate := result.Candidates[0]

	var parts []string
	var toolUses []provider.ToolUse

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				parts = append(parts, part.Text)
			}

			if call := part.FunctionCall; call != nil {
				if call.Name == "" || len(call.Args) == 0 {
					continue
				}

				id := call.ID

				if id == "" {
					id = uuid.New().String()
				}

				toolUses = append(toolUses, provider.ToolUse{
					ID: id,

					Name:  call.Name,
					Input: call.Args,
				})
			}
		}
	}

	resp := &provider.Response{
		ID: uuid.New().String(),

		Model: model,

		Role:    provider.MessageRoleAssistant,
		Content: format.Clean(f, strings.Join(parts, "\n\n")),

		Reason: toFinishReason(candidate.FinishReason, len(toolUses) > 0),

		ToolUses: toolUses,

		Timestamp: time.Now(),
	}

	if usage := result.UsageMetadata; usage != nil {
		if usage.PromptTokenCount > 0 || usage.CandidatesTokenCount > 0 {
			resp.Usage = &provider.Usage{
				InputTokens:  int(usage.PromptTokenCount),
				OutputTokens: int(usage.CandidatesTokenCount),
			}
		}
	}

	return resp
}

func toFinishReason(reason genai.FinishReason, toolUse bool) provider.FinishReason {
	if toolUse {
		return provider.FinishReasonToolUse
	}

	switch reason {
	case genai.FinishReasonStop:
		return provider.FinishReasonStop

	case genai.FinishReasonMaxTokens:
		return provider.FinishReasonMaxTokens

	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return provider.FinishReasonContentFilter

	default:
		return provider.FinishReasonStop
	}
}

func convertError(err error) error {
	var apierr genai.APIError

	if errors.As(err, &apierr) {
		return fault.Wrap(fault.KindNetwork, err, "gemini request failed with status %d", apierr.Code)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindNetwork, err, "gemini request cancelled")
	}

	return fault.Wrap(fault.KindNetwork, err, "gemini request failed")
}
