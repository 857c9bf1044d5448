package provider

import (
	"context"
	"time"
)

type Completer interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Provider is the full contract a vendor integration satisfies: one chat
// completion path, a model catalog, and self-validation of its credentials.
type Provider interface {
	Completer

	Models(ctx context.Context) ([]Model, error)
	Validate() error
}

type Model struct {
	ID string

	Vision    bool
	Streaming bool

	MaxOutputTokens int
	ContextWindow   int
}

// Usage is the token accounting reported by the vendor. It is kept separate
// from the local estimates on Response and the two are never merged.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// ToolUse is a structured request from the model to invoke an external
// capability, carried in the response content.
type ToolUse struct {
	ID string

	Name  string
	Input map[string]any
}

type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonMaxTokens     FinishReason = "max_tokens"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonError         FinishReason = "error"
	FinishReasonCancelled     FinishReason = "cancelled"
	FinishReasonToolUse       FinishReason = "tool_use"
)

type Response struct {
	ID string

	Model string

	Role    MessageRole
	Content string

	Reason FinishReason

	// Usage is the vendor-reported accounting, nil if the vendor sent none.
	Usage *Usage

	// EstimatedInputTokens and EstimatedOutputTokens are computed locally,
	// before and after the network call respectively. They are retained
	// alongside the reported usage, never merged into it.
	EstimatedInputTokens  int
	EstimatedOutputTokens int

	ToolUses []ToolUse

	Metadata map[string]string

	Timestamp time.Time
}

// Timeout carries the per-provider transport timeouts in milliseconds.
type Timeout struct {
	ConnectMS int
	ReadMS    int
	WriteMS   int
}

func (t Timeout) Connect() time.Duration {
	if t.ConnectMS <= 0 {
		return 10 * time.Second
	}

	return time.Duration(t.ConnectMS) * time.Millisecond
}

func (t Timeout) Read() time.Duration {
	if t.ReadMS <= 0 {
		return 60 * time.Second
	}

	return time.Duration(t.ReadMS) * time.Millisecond
}
