package openai

import (
	"net/http"
	"strings"

	"github.com/relaygw/relay/pkg/provider"

	"github.com/openai/openai-go/v3/option"
)

// Config is the OpenAI variant of the provider configuration. It is also
// reused by OpenAI-compatible custom endpoints, which differ only in URL.
type Config struct {
	APIKey  string
	BaseURL string

	Timeout provider.Timeout

	DefaultModel string

	Client *http.Client
}

func (cfg Config) options() []option.RequestOption {
	url := cfg.BaseURL

	if url == "" {
		url = "https://api.openai.com/v1/"
	}

	url = strings.TrimRight(url, "/") + "/"

	options := []option.RequestOption{
		option.WithBaseURL(url),
	}

	if cfg.Client != nil {
		options = append(options, option.WithHTTPClient(cfg.Client))
	}

	if cfg.APIKey != "" {
		options = append(options, option.WithAPIKey(cfg.APIKey))
	}

	return options
}
