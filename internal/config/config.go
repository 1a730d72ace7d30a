// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
)

type Config struct {
	Application Application `yaml:"application"`
	Logger      Logger      `yaml:"logger"`
	HTTP        HTTPServer  `yaml:"http"`
	HostAPI     HostAPI     `yaml:"hostAPI"`
}

type Application struct {
	Name string `yaml:"name" env:"INTEGRATIONS_APP_NAME"`

	// PublicURL is the externally reachable base URL of this service. It is
	// used to build redirect URIs handed to identity providers and webhook
	// callback URLs registered with Git hosting providers.
	PublicURL string `yaml:"publicURL" env:"INTEGRATIONS_PUBLIC_URL"`
}

type Logger struct {
	Level  string `yaml:"level" env:"INTEGRATIONS_LOG_LEVEL"`
	Format string `yaml:"format" env:"INTEGRATIONS_LOG_FORMAT"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"INTEGRATIONS_HTTP_ADDRESS"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// HostAPI configures the client for the documentation platform's REST API.
type HostAPI struct {
	Endpoint string `yaml:"endpoint" env:"INTEGRATIONS_HOST_API_ENDPOINT"`
	// Token is deliberately environment-only so it never lands in a config
	// file checked into version control.
	Token                string        `yaml:"-" env:"INTEGRATIONS_HOST_API_TOKEN"`
	PublishedURLCacheTTL time.Duration `yaml:"publishedURLCacheTTL"`
}

// Load reads the YAML config file at path, applies environment overrides and
// fills in defaults. A missing file is not an error; the environment alone can
// carry a full configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fall through to env and defaults
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Application.Name == "" {
		c.Application.Name = "integrations"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.HostAPI.PublishedURLCacheTTL == 0 {
		c.HostAPI.PublishedURLCacheTTL = time.Minute
	}
}

// Validate reports the settings without which the service cannot start.
func (c *Config) Validate() error {
	if c.HostAPI.Endpoint == "" {
		return errors.New("hostAPI.endpoint is required")
	}
	if c.Application.PublicURL == "" {
		return errors.New("application.publicURL is required")
	}

	return nil
}
