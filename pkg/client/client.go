// Package client is a Go client for the relay HTTP API.
package client

import (
	"net/http"
)

type Client struct {
	Models ModelService

	Chats ChatService

	Sessions SessionService
	Tasks    TaskService
}

func New(url string, opts ...RequestOption) *Client {
	opts = append(opts, WithURL(url))

	return &Client{
		Models: NewModelService(opts...),

		Chats: NewChatService(opts...),

		Sessions: NewSessionService(opts...),
		Tasks:    NewTaskService(opts...),
	}
}

func newRequestConfig(opts ...RequestOption) *RequestConfig {
	c := &RequestConfig{
		Client: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func Ptr[T any](v T) *T {
	return &v
}
