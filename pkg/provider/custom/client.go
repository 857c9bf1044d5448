// Package custom serves OpenAI-compatible endpoints that are not OpenAI:
// self-hosted gateways, proxies, or local runtimes. Only the base URL
// differs, so the client is the openai client with the URL required.
package custom

import (
	"github.com/relaygw/relay/pkg/fault"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/provider/openai"
)

type Client = openai.Client

type Config = openai.Config

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fault.Configuration("custom provider requires a base url")
	}

	return openai.New(cfg)
}

func Creator(config any) (provider.Provider, error) {
	return New(config.(Config))
}
