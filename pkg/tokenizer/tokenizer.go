// Package tokenizer estimates token counts for text and conversations. The
// estimates are heuristic and deterministic: they are computed locally before
// and after each vendor call, independent of whatever usage the vendor
// reports.
package tokenizer

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/relaygw/relay/pkg/provider"
)

const (
	// messageOverhead approximates the fixed wrapping cost per message
	// (role marker and delimiters), independent of the model family.
	messageOverhead = 4

	// conversationOverhead approximates the cost of the reply priming.
	conversationOverhead = 3

	defaultCharsPerToken = 4.0
)

// encodings maps model-name prefixes to the average characters-per-token of
// that family. Longest matching prefix wins; unrecognized models fall back to
// the generic encoding.
var encodings = []struct {
	prefix        string
	charsPerToken float64
}{
	{"claude", 3.5},
	{"gpt", 4.0},
	{"o1", 4.0},
	{"o3", 4.0},
	{"gemini", 4.0},
	{"mistral", 3.8},
	{"llama", 3.6},
}

type Counter struct {
	charsPerToken float64
}

// ForModel selects the encoding for a model family by name prefix.
func ForModel(model string) *Counter {
	model = strings.ToLower(model)

	best := defaultCharsPerToken
	bestLen := 0

	for _, e := range encodings {
		if strings.HasPrefix(model, e.prefix) && len(e.prefix) > bestLen {
			best = e.charsPerToken
			bestLen = len(e.prefix)
		}
	}

	return &Counter{
		charsPerToken: best,
	}
}

func Generic() *Counter {
	return &Counter{
		charsPerToken: defaultCharsPerToken,
	}
}

// Count estimates the tokens of a bare string. The empty string is 0.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}

	chars := utf8.RuneCountInString(text)

	return int(math.Ceil(float64(chars) / c.charsPerToken))
}

// CountMessages estimates the tokens of a conversation without the
// conversation-level wrapping.
func (c *Counter) CountMessages(messages []provider.Message) int {
	total := 0

	for _, m := range messages {
		total += messageOverhead
		total += c.Count(m.Text())
	}

	return total
}

// CountWithFormatting estimates the full prompt cost: conversation wrapper,
// per-message formatting overhead, message contents and the optional system
// prompt.
func (c *Counter) CountWithFormatting(messages []provider.Message, system string) int {
	total := conversationOverhead + c.CountMessages(messages)

	if system != "" {
		total += messageOverhead + c.Count(system)
	}

	return total
}
