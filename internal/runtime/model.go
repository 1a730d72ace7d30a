// Package runtime models the host platform's integration runtime: the
// installation context handed to adapters and the event envelopes the host
// delivers over HTTP.
package runtime

import (
	"context"

	"github.com/pagedeck/integrations/internal/serviceerr"
)

// Status is the lifecycle state of a space installation.
type Status string

const (
	// StatusActive means setup completed and the integration is live.
	StatusActive Status = "active"
	// StatusPending means the customer has not finished configuring the
	// integration; adapters must not take provider-side actions yet.
	StatusPending Status = "pending"
)

// Installation binds an integration to one customer account on the host
// platform.
type Installation struct {
	ID            string         `json:"id"`
	Configuration map[string]any `json:"configuration"`
}

// SpaceInstallation scopes an installation to a single space and carries the
// provider-specific configuration the customer entered. The configuration map
// is owned by the host platform; it is read fresh on every event and never
// cached across requests.
type SpaceInstallation struct {
	InstallationID string         `json:"installationId"`
	SpaceID        string         `json:"spaceId"`
	Status         Status         `json:"status"`
	Configuration  map[string]any `json:"configuration"`
}

// Environment is the per-event context for an adapter: which integration,
// which space, the installation records and the per-installation signing key
// the host platform provisioned.
type Environment struct {
	IntegrationName   string             `json:"integrationName"`
	SpaceID           string             `json:"spaceId"`
	Installation      *Installation      `json:"installation,omitempty"`
	SpaceInstallation *SpaceInstallation `json:"spaceInstallation,omitempty"`
	SigningKey        string             `json:"signingKey,omitempty"`
}

// RequireSpaceInstallation returns the space installation or
// ErrInstallationMissing when the event arrived without one.
func (e *Environment) RequireSpaceInstallation() (*SpaceInstallation, error) {
	if e == nil || e.SpaceInstallation == nil {
		return nil, serviceerr.ErrInstallationMissing
	}

	return e.SpaceInstallation, nil
}

// Loader resolves the environment for requests that arrive without an inline
// envelope, such as browser redirects and provider webhooks, where only the
// installation identity is present in the URL.
type Loader interface {
	LoadEnvironment(ctx context.Context, integration, installationID, spaceID string) (*Environment, error)
}
