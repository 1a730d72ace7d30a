package gitsync

import (
	"fmt"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// defaultHost is used when the customer does not run a self-managed instance.
const defaultHost = "gitlab.com"

// Config is the per-space GitLab configuration. WebhookID is the identifier
// GitLab assigned to the currently installed webhook; zero means no webhook
// has been installed yet.
type Config struct {
	Project   string `config:"project"`
	AuthToken string `config:"auth_token"`
	Host      string `config:"host"`
	Ref       string `config:"ref"`
	WebhookID int64  `config:"webhookId"`
}

func ConfigFromMap(raw map[string]any) (Config, error) {
	var cfg Config
	if err := runtime.DecodeConfiguration(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding gitlab configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields without which no provider call can be made.
func (c Config) Validate() error {
	switch {
	case c.Project == "":
		return serviceerr.ConfigurationMissing("project")
	case c.AuthToken == "":
		return serviceerr.ConfigurationMissing("auth_token")
	}

	return nil
}

// HostOrDefault returns the configured GitLab host, falling back to the
// public instance.
func (c Config) HostOrDefault() string {
	if c.Host == "" {
		return defaultHost
	}

	return c.Host
}
