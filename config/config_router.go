package config

import (
	"fmt"

	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/router/roundrobin"
)

type routerConfig struct {
	Name string `yaml:"name"`

	Routes []string `yaml:"routes"`
}

// registerRouters runs after registerProviders so routes can refer to any
// configured provider by name.
func (c *Config) registerRouters(file *configFile) error {
	for _, cfg := range file.Routers {
		if cfg.Name == "" {
			return fmt.Errorf("router requires a name")
		}

		var completers []provider.Completer

		for _, route := range cfg.Routes {
			completer, ok := c.completers[route]

			if !ok {
				return fmt.Errorf("router %q routes to unknown provider %q", cfg.Name, route)
			}

			completers = append(completers, completer)
		}

		completer, err := roundrobin.NewCompleter(completers...)

		if err != nil {
			return fmt.Errorf("unable to create router %q: %w", cfg.Name, err)
		}

		if _, ok := c.completers[cfg.Name]; ok {
			return fmt.Errorf("router %q collides with a provider name", cfg.Name)
		}

		c.completers[cfg.Name] = completer
	}

	return nil
}
