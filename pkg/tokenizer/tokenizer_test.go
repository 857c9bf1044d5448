package tokenizer

import (
	"testing"

	"github.com/relaygw/relay/pkg/provider"
)

func TestCountEmpty(t *testing.T) {
	if got := Generic().Count(""); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
}

func TestCountRoundsUp(t *testing.T) {
	// 5 runes at 4 chars per token is 1.25, which rounds up to 2.
	if got := Generic().Count("hello"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestCountRunesNotBytes(t *testing.T) {
	// 4 runes, 12 bytes. Counting bytes would give 3 tokens instead of 1.
	if got := Generic().Count("日本語字"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestForModelPrefix(t *testing.T) {
	tests := []struct {
		model string
		text  string
		want  int
	}{
		// 7 runes: claude at 3.5 cpt gives 2, generic at 4.0 gives 2,
		// llama at 3.6 gives 2. Use longer text to separate them.
		{"claude-sonnet-4-5", "aaaaaaaaaaaaaa", 4},  // 14 / 3.5
		{"gpt-4o", "aaaaaaaaaaaaaaaa", 4},           // 16 / 4.0
		{"unknown-model", "aaaaaaaaaaaaaaaa", 4},    // falls back to 4.0
		{"llama-3.3-70b", "aaaaaaaaaaaaaaaaaa", 5},  // 18 / 3.6
		{"Mistral-7B", "aaaaaaaaaaaaaaaaaaa", 5},    // case-insensitive, 19 / 3.8
	}

	for _, tt := range tests {
		if got := ForModel(tt.model).Count(tt.text); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.model, tt.want, got)
		}
	}
}

func TestCountMessagesOverhead(t *testing.T) {
	messages := []provider.Message{
		provider.UserMessage(""),
		provider.AssistantMessage(""),
		provider.UserMessage(""),
	}

	// Empty contents leave only the per-message wrapping.
	if got := Generic().CountMessages(messages); got != 3*messageOverhead {
		t.Errorf("expected %d, got %d", 3*messageOverhead, got)
	}
}

func TestCountWithFormatting(t *testing.T) {
	messages := []provider.Message{
		provider.UserMessage("hello"),
	}

	counter := Generic()

	base := conversationOverhead + messageOverhead + counter.Count("hello")

	if got := counter.CountWithFormatting(messages, ""); got != base {
		t.Errorf("expected %d without system prompt, got %d", base, got)
	}

	withSystem := base + messageOverhead + counter.Count("be brief")

	if got := counter.CountWithFormatting(messages, "be brief"); got != withSystem {
		t.Errorf("expected %d with system prompt, got %d", withSystem, got)
	}
}
