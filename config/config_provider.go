package config

import (
	"fmt"

	"github.com/relaygw/relay/pkg/limiter"
	"github.com/relaygw/relay/pkg/otel"
	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/provider/anthropic"
	"github.com/relaygw/relay/pkg/provider/custom"
	"github.com/relaygw/relay/pkg/provider/google"
	"github.com/relaygw/relay/pkg/provider/huggingface"
	"github.com/relaygw/relay/pkg/provider/openai"
)

func (c *Config) registerCreators() {
	c.factory.Register("anthropic", anthropic.Creator)
	c.factory.Register("openai", openai.Creator)
	c.factory.Register("huggingface", huggingface.Creator)
	c.factory.Register("gemini", google.Creator)
	c.factory.Register("custom", custom.Creator)
}

func (c *Config) registerProviders(file *configFile) error {
	for _, cfg := range file.Providers {
		if cfg.Name == "" {
			return fmt.Errorf("provider requires a name")
		}

		p, err := c.createProvider(cfg)

		if err != nil {
			return fmt.Errorf("provider %q: %w", cfg.Name, err)
		}

		if err := p.Validate(); err != nil {
			return fmt.Errorf("provider %q: %w", cfg.Name, err)
		}

		var completer provider.Completer = otel.NewCompleter(cfg.Type, cfg.Model, p)

		if l := createLimiter(cfg.Limit); l != nil {
			completer = limiter.NewCompleter(l, completer)
		}

		c.providers[cfg.Name] = p
		c.completers[cfg.Name] = completer

		if cfg.Default || c.defaultProvider == "" {
			c.defaultProvider = cfg.Name
		}
	}

	return nil
}

func (c *Config) createProvider(cfg providerConfig) (provider.Provider, error) {
	timeout := provider.Timeout{
		ConnectMS: cfg.Timeout.ConnectMS,
		ReadMS:    cfg.Timeout.ReadMS,
		WriteMS:   cfg.Timeout.WriteMS,
	}

	switch cfg.Type {
	case "anthropic":
		return c.factory.Create(cfg.Type, anthropic.Config{
			APIKey:  cfg.Token,
			BaseURL: cfg.URL,

			Timeout: timeout,

			DefaultModel: cfg.Model,

			Client: c.client,
		})

	case "openai", "custom":
		return c.factory.Create(cfg.Type, openai.Config{
			APIKey:  cfg.Token,
			BaseURL: cfg.URL,

			Timeout: timeout,

			DefaultModel: cfg.Model,

			Client: c.client,
		})

	case "huggingface":
		return c.factory.Create(cfg.Type, huggingface.Config{
			APIKey:  cfg.Token,
			BaseURL: cfg.URL,

			Timeout: timeout,

			DefaultModel: cfg.Model,

			Client: c.client,
		})

	case "gemini":
		return c.factory.Create(cfg.Type, google.Config{
			APIKey:  cfg.Token,
			BaseURL: cfg.URL,

			Timeout: timeout,

			DefaultModel: cfg.Model,

			Client: c.client,
		})

	default:
		_, err := c.factory.Create(cfg.Type, nil)
		return nil, err
	}
}

// Completer resolves a provider name to its decorated completer. The empty
// name resolves to the default provider.
func (c *Config) Completer(name string) (provider.Completer, bool) {
	if name == "" {
		name = c.defaultProvider
	}

	completer, ok := c.completers[name]

	return completer, ok
}

func (c *Config) Provider(name string) (provider.Provider, bool) {
	if name == "" {
		name = c.defaultProvider
	}

	p, ok := c.providers[name]

	return p, ok
}

func (c *Config) DefaultProvider() string {
	return c.defaultProvider
}

func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.providers))

	for name := range c.providers {
		names = append(names, name)
	}

	return names
}
