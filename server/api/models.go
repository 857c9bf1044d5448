package api

import (
	"time"
)

type ErrorResponse struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Message string `json:"message"`

	System string `json:"system,omitempty"`

	Format string `json:"format,omitempty"`

	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	ID string `json:"id"`

	SessionID string `json:"session_id"`

	Model string `json:"model"`

	Content string `json:"content"`

	FinishReason string `json:"finish_reason"`

	Usage *UsageResponse `json:"usage,omitempty"`

	EstimatedInputTokens  int `json:"estimated_input_tokens"`
	EstimatedOutputTokens int `json:"estimated_output_tokens"`

	ToolUses []ToolUseResponse `json:"tool_uses,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

type UsageResponse struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type ToolUseResponse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type ModelResponse struct {
	ID string `json:"id"`

	Provider string `json:"provider"`

	Vision    bool `json:"vision"`
	Streaming bool `json:"streaming"`

	MaxOutputTokens int `json:"max_output_tokens"`
	ContextWindow   int `json:"context_window"`
}

type SessionResponse struct {
	ID string `json:"id"`

	Title string `json:"title"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []MessageResponse `json:"messages,omitempty"`
}

type MessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	Timestamp time.Time `json:"timestamp"`
}

type TaskRequest struct {
	Title string `json:"title,omitempty"`

	Request string `json:"request"`

	IntervalSeconds int `json:"interval_seconds"`

	ExecuteImmediately bool `json:"execute_immediately"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type TaskResponse struct {
	ID string `json:"id"`

	Title string `json:"title,omitempty"`

	Request string `json:"request"`

	IntervalSeconds int `json:"interval_seconds"`

	ExecuteImmediately bool `json:"execute_immediately"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	SessionID string `json:"session_id,omitempty"`

	Running bool `json:"running"`

	SecondsUntilNextExecution int64 `json:"seconds_until_next_execution"`

	CreatedAt time.Time `json:"created_at"`
}
