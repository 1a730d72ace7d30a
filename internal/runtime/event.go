package runtime

import (
	"encoding/json"
	"fmt"
	"io"
)

// Event types delivered by the host runtime.
const (
	EventInstallationSetup      = "installation_setup"
	EventSpaceInstallationSetup = "space_installation_setup"
	EventSpaceContentUpdated    = "space_content_updated"
)

// Event is the envelope the host runtime POSTs to an integration. The
// environment travels inline so lifecycle handlers need no extra host API
// round trip.
type Event struct {
	Type        string          `json:"type"`
	Environment *Environment    `json:"environment"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// ParseEvent decodes an event envelope from an HTTP request body.
func ParseEvent(r io.Reader) (Event, error) {
	var event Event
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return Event{}, fmt.Errorf("decoding event envelope: %w", err)
	}

	if event.Type == "" {
		return Event{}, fmt.Errorf("event envelope has no type")
	}

	return event, nil
}
