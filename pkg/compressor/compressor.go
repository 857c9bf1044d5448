// Package compressor keeps long conversation histories inside a model's
// context budget by summarizing the older turns through a completer and
// keeping the most recent turns verbatim.
package compressor

import (
	"context"
	"strings"

	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/tokenizer"
)

const (
	defaultThreshold  = 8000
	defaultKeepRecent = 4
)

type Compressor struct {
	completer provider.Completer
	counter   *tokenizer.Counter

	// threshold is the estimated token count above which compression kicks
	// in; keepRecent turns always survive verbatim.
	threshold  int
	keepRecent int
}

type Option func(*Compressor)

func WithThreshold(threshold int) Option {
	return func(c *Compressor) {
		c.threshold = threshold
	}
}

func WithKeepRecent(keep int) Option {
	return func(c *Compressor) {
		c.keepRecent = keep
	}
}

func FromCompleter(completer provider.Completer, counter *tokenizer.Counter, options ...Option) *Compressor {
	c := &Compressor{
		completer: completer,
		counter:   counter,

		threshold:  defaultThreshold,
		keepRecent: defaultKeepRecent,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Compress returns the history unchanged while it fits the budget. Above
// the threshold the older turns collapse into a single system recap.
func (c *Compressor) Compress(ctx context.Context, messages []provider.Message) ([]provider.Message, error) {
	if len(messages) <= c.keepRecent {
		return messages, nil
	}

	if c.counter.CountMessages(messages) <= c.threshold {
		return messages, nil
	}

	head := messages[:len(messages)-c.keepRecent]
	tail := messages[len(messages)-c.keepRecent:]

	completion, err := c.completer.Complete(ctx, &provider.Request{
		Messages: []provider.Message{
			provider.UserMessage("Write a concise summary of the following conversation, keeping every fact a future reply might need:\n\n" + transcript(head)),
		},
	})

	if err != nil {
		return nil, err
	}

	result := make([]provider.Message, 0, len(tail)+1)
	result = append(result, provider.SystemMessage("Summary of the earlier conversation: "+completion.Content))
	result = append(result, tail...)

	return result, nil
}

func transcript(messages []provider.Message) string {
	var lines []string

	for _, m := range messages {
		if text := m.Text(); text != "" {
			lines = append(lines, string(m.Role)+": "+text)
		}
	}

	return strings.Join(lines, "\n")
}
