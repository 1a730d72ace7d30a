package visitorauth

import (
	"fmt"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// Config is the per-installation OAuth client configuration the customer
// enters on the host platform.
type Config struct {
	ClientID     string `config:"client_id"`
	ClientSecret string `config:"client_secret"`
	OktaDomain   string `config:"okta_domain"`
}

// ConfigFromEnvironment decodes the installation configuration into a typed
// value. Presence checks are left to Validate/ValidateAuthorize so each entry
// point enforces exactly the fields it needs.
func ConfigFromEnvironment(env *runtime.Environment) (Config, error) {
	si, err := env.RequireSpaceInstallation()
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := runtime.DecodeConfiguration(si.Configuration, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding visitor auth configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the full credential set the token exchange requires.
func (c Config) Validate() error {
	switch {
	case c.ClientID == "":
		return serviceerr.ConfigurationMissing("client_id")
	case c.ClientSecret == "":
		return serviceerr.ConfigurationMissing("client_secret")
	case c.OktaDomain == "":
		return serviceerr.ConfigurationMissing("okta_domain")
	}

	return nil
}

// ValidateAuthorize checks only what the authorization redirect needs; the
// client secret is not part of the front-channel request.
func (c Config) ValidateAuthorize() error {
	switch {
	case c.ClientID == "":
		return serviceerr.ConfigurationMissing("client_id")
	case c.OktaDomain == "":
		return serviceerr.ConfigurationMissing("okta_domain")
	}

	return nil
}
