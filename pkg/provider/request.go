package provider

import (
	"strings"
)

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role MessageRole

	Content []Content
}

func SystemMessage(content string) Message {
	return Message{
		Role: MessageRoleSystem,

		Content: []Content{
			{
				Text: content,
			},
		},
	}
}

func UserMessage(content string) Message {
	return Message{
		Role: MessageRoleUser,

		Content: []Content{
			{
				Text: content,
			},
		},
	}
}

func AssistantMessage(content string) Message {
	return Message{
		Role: MessageRoleAssistant,

		Content: []Content{
			{
				Text: content,
			},
		},
	}
}

func (m Message) Text() string {
	var parts []string

	for _, c := range m.Content {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
	}

	return strings.Join(parts, "\n\n")
}

type Content struct {
	Text string

	File *File

	ToolResult *ToolResult
}

func TextContent(val string) Content {
	return Content{
		Text: val,
	}
}

func FileContent(val *File) Content {
	return Content{
		File: val,
	}
}

type File struct {
	Name string

	Content     []byte
	ContentType string
}

type ToolResult struct {
	ID string

	Data string
}

type Format string

const (
	FormatPlain Format = ""
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
)

type Parameters struct {
	Temperature *float32
	MaxTokens   *int

	TopP *float32
	TopK *int

	FrequencyPenalty *float32
	PresencePenalty  *float32

	Stop []string

	Format Format

	Stream bool
}

// Request is the provider-agnostic chat request. Messages is conversation
// order and must be preserved through every vendor mapping.
type Request struct {
	Model string

	Messages []Message

	System string

	Params Parameters

	SessionID string

	Metadata map[string]string
}

// Clone copies the request deeply enough that mapping-time rewrites (like
// response-format enhancement) never leak back into the caller's messages.
func (r *Request) Clone() *Request {
	clone := *r

	clone.Messages = make([]Message, len(r.Messages))

	for i, m := range r.Messages {
		clone.Messages[i] = Message{
			Role:    m.Role,
			Content: append([]Content(nil), m.Content...),
		}
	}

	return &clone
}

// LastUserIndex returns the index of the last user message, -1 if none.
// Response-format enhancement applies to this message only.
func (r *Request) LastUserIndex() int {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == MessageRoleUser {
			return i
		}
	}

	return -1
}
