package anthropic

import (
	"net/http"
	"strings"

	"github.com/relaygw/relay/pkg/provider"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// Config is the Claude variant of the provider configuration. One instance
// is owned by exactly one Client for its lifetime.
type Config struct {
	APIKey  string
	BaseURL string

	Timeout provider.Timeout

	DefaultModel string

	// Client is the shared HTTP client injected by the composing
	// application; providers never construct their own per call.
	Client *http.Client
}

func (cfg Config) options() []option.RequestOption {
	url := cfg.BaseURL

	if url == "" {
		url = "https://api.anthropic.com/"
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
