package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/provider"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{
		APIKey:  "test",
		BaseURL: server.URL,

		DefaultModel: "meta-llama/Llama-3.3-70B-Instruct",
	})

	require.NoError(t, err)

	return c
}

func completionBody(content, finishReason string) string {
	return `{
		"id": "cmpl-1",
		"model": "meta-llama/Llama-3.3-70B-Instruct",
		"choices": [{"message": {"role": "assistant", "content": ` + mustJSON(content) + `}, "finish_reason": "` + finishReason + `"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 34}
	}`
}

func mustJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestComplete(t *testing.T) {
	var captured chatRequest

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("hello there", "stop")))
	})

	resp, err := c.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{
			provider.UserMessage("hi"),
		},
	})

	require.NoError(t, err)

	require.Equal(t, "hello there", resp.Content)
	require.Equal(t, provider.FinishReasonStop, resp.Reason)

	require.NotNil(t, resp.Usage)
	require.Equal(t, 12, resp.Usage.InputTokens)
	require.Equal(t, 34, resp.Usage.OutputTokens)
	require.Equal(t, 46, resp.Usage.TotalTokens())

	require.Greater(t, resp.EstimatedInputTokens, 0)
	require.Greater(t, resp.EstimatedOutputTokens, 0)

	require.Equal(t, "meta-llama/Llama-3.3-70B-Instruct", captured.Model)
}

func TestCompleteFoldsSystemIntoUserRole(t *testing.T) {
	var captured chatRequest

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Write([]byte(completionBody("ok", "stop")))
	})

	_, err := c.Complete(context.Background(), &provider.Request{
		System: "be brief",

		Messages: []provider.Message{
			provider.SystemMessage("stay polite"),
			provider.UserMessage("hi"),
		},
	})

	require.NoError(t, err)

	require.Len(t, captured.Messages, 3)

	for _, m := range captured.Messages {
		require.NotEqual(t, "system", m.Role)
	}

	require.Equal(t, "be brief", captured.Messages[0].Content)
	require.Equal(t, "user", captured.Messages[0].Role)
}

func TestCompleteCleansJSONFormat(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("```json\n{\"a\": 1}\n```", "stop")))
	})

	resp, err := c.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{
			provider.UserMessage("data please"),
		},

		Params: provider.Parameters{
			Format: provider.FormatJSON,
		},
	})

	require.NoError(t, err)
	require.Equal(t, "{\n  \"a\": 1\n}", resp.Content)
}

func TestCompleteEnhancesLastUserMessage(t *testing.T) {
	var captured chatRequest

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Write([]byte(completionBody("{}", "stop")))
	})

	_, err := c.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{
			provider.UserMessage("first"),
			provider.AssistantMessage("reply"),
			provider.UserMessage("second"),
		},

		Params: provider.Parameters{
			Format: provider.FormatJSON,
		},
	})

	require.NoError(t, err)

	require.Equal(t, "first", captured.Messages[0].Content)
	require.Contains(t, captured.Messages[2].Content, "single JSON document")
}

func TestCompleteEmptyMessages(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Complete(context.Background(), &provider.Request{})

	require.Error(t, err)
	require.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestCompleteVendorErrorString(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limit exceeded"}`))
	})

	_, err := c.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{provider.UserMessage("hi")},
	})

	require.Error(t, err)
	require.Equal(t, fault.KindNetwork, fault.KindOf(err))
	require.Contains(t, err.Error(), "rate limit exceeded")
	require.Contains(t, err.Error(), "429")
}

func TestCompleteVendorErrorObject(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	})

	_, err := c.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{provider.UserMessage("hi")},
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "model overloaded")
}

func TestCompleteVendorErrorRawBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream unavailable"))
	})

	_, err := c.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{provider.UserMessage("hi")},
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream unavailable")
}

func TestCompleteNoChoices(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "cmpl-1", "choices": []}`))
	})

	_, err := c.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{provider.UserMessage("hi")},
	})

	require.Error(t, err)
	require.Equal(t, fault.KindParse, fault.KindOf(err))
}

func TestValidate(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	require.Equal(t, fault.KindValidation, fault.KindOf(err))
	require.Contains(t, err.Error(), "api key")

	c, err = New(Config{APIKey: "k", BaseURL: "http://insecure"})
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "https"))
}
