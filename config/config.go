package config

import (
	"bytes"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/task"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address string

	Database string

	client *http.Client

	factory *provider.Factory

	defaultProvider string

	providers  map[string]provider.Provider
	completers map[string]provider.Completer

	tasks []task.Definition
}

func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	c := &Config{
		Address: ":8080",

		Database: "relay.db",

		client: newHTTPClient(),

		factory: provider.NewFactory(),

		providers:  map[string]provider.Provider{},
		completers: map[string]provider.Completer{},
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if file.Database != "" {
		c.Database = file.Database
	}

	// Registration completes here, before any Create call: steady-state
	// factory reads need no extra locking.
	c.registerCreators()

	if err := c.registerProviders(file); err != nil {
		return nil, err
	}

	if err := c.registerRouters(file); err != nil {
		return nil, err
	}

	if err := c.registerTasks(file); err != nil {
		return nil, err
	}

	return c, nil
}

type configFile struct {
	Address string `yaml:"address"`

	Database string `yaml:"database"`

	Providers []providerConfig `yaml:"providers"`

	Routers []routerConfig `yaml:"routers"`

	Tasks []taskConfig `yaml:"tasks"`
}

type providerConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	Token string `yaml:"token"`
	URL   string `yaml:"url"`

	Model string `yaml:"model"`

	Default bool `yaml:"default"`

	Limit *int `yaml:"limit"`

	Timeout timeoutConfig `yaml:"timeout"`
}

type timeoutConfig struct {
	ConnectMS int `yaml:"connect_ms"`
	ReadMS    int `yaml:"read_ms"`
	WriteMS   int `yaml:"write_ms"`
}

type taskConfig struct {
	Title string `yaml:"title"`

	Request string `yaml:"request"`

	IntervalSeconds int `yaml:"interval"`

	Immediate bool `yaml:"immediate"`

	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}

// newHTTPClient builds the single shared client reused by every provider
// and every scheduler; no per-call client construction.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:    50,
		IdleConnTimeout: 90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
	}
}
