package openai

import (
	"testing"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/provider"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	require.Equal(t, fault.KindValidation, fault.KindOf(err))

	c, err = New(Config{APIKey: "k"})
	require.NoError(t, err)
	require.NoError(t, c.Validate())
}

func TestToFinishReason(t *testing.T) {
	tests := []struct {
		reason string
		want   provider.FinishReason
	}{
		{"stop", provider.FinishReasonStop},
		{"length", provider.FinishReasonMaxTokens},
		{"content_filter", provider.FinishReasonContentFilter},
		{"tool_calls", provider.FinishReasonToolUse},
		{"function_call", provider.FinishReasonToolUse},
		{"something_new", provider.FinishReasonStop},
	}

	for _, tt := range tests {
		if got := toFinishReason(tt.reason); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.reason, tt.want, got)
		}
	}
}

func TestToToolUse(t *testing.T) {
	use, ok := toToolUse("call_1", "lookup", `{"query": "weather"}`)
	require.True(t, ok)
	require.Equal(t, "lookup", use.Name)
	require.Equal(t, "weather", use.Input["query"])

	_, ok = toToolUse("call_1", "", `{}`)
	require.False(t, ok)

	_, ok = toToolUse("call_1", "lookup", "")
	require.False(t, ok)

	_, ok = toToolUse("call_1", "lookup", "not json")
	require.False(t, ok)
}

func TestConvertRequestKeepsSystemRole(t *testing.T) {
	params, err := convertRequest("gpt-4o", &provider.Request{
		System: "be brief",

		Messages: []provider.Message{
			provider.SystemMessage("stay polite"),
			provider.UserMessage("hi"),
		},
	})

	require.NoError(t, err)

	// Chat completions has a native system role, so nothing gets folded.
	require.Len(t, params.Messages, 3)
	require.NotNil(t, params.Messages[0].OfSystem)
	require.NotNil(t, params.Messages[1].OfSystem)
	require.NotNil(t, params.Messages[2].OfUser)
}

func TestConvertRequestRejectsFiles(t *testing.T) {
	_, err := convertRequest("gpt-4o", &provider.Request{
		Messages: []provider.Message{
			{
				Role: provider.MessageRoleUser,

				Content: []provider.Content{
					provider.FileContent(&provider.File{
						ContentType: "image/png",
					}),
				},
			},
		},
	})

	require.Error(t, err)
	require.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestConvertRequestStopSequences(t *testing.T) {
	params, err := convertRequest("gpt-4o", &provider.Request{
		Messages: []provider.Message{
			provider.UserMessage("hi"),
		},

		Params: provider.Parameters{
			Stop: []string{"END", "DONE"},
		},
	})

	require.NoError(t, err)
	require.Equal(t, []string{"END", "DONE"}, params.Stop.OfStringArray)
}
