package runtime_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr assert.ErrorAssertionFunc
		check   func(t *testing.T, event runtime.Event)
	}{
		{
			name: "Setup event with environment",
			body: `{
				"type": "space_installation_setup",
				"environment": {
					"integrationName": "gitlab",
					"spaceId": "sp_1",
					"spaceInstallation": {
						"installationId": "in_1",
						"spaceId": "sp_1",
						"status": "active",
						"configuration": {"project": "42"}
					}
				}
			}`,
			wantErr: assert.NoError,
			check: func(t *testing.T, event runtime.Event) {
				assert.Equal(t, runtime.EventSpaceInstallationSetup, event.Type)
				require.NotNil(t, event.Environment)
				assert.Equal(t, "gitlab", event.Environment.IntegrationName)
				si, err := event.Environment.RequireSpaceInstallation()
				require.NoError(t, err)
				assert.Equal(t, runtime.StatusActive, si.Status)
				assert.Equal(t, "42", si.Configuration["project"])
			},
		},
		{
			name:    "Missing type",
			body:    `{"environment": {}}`,
			wantErr: assert.Error,
		},
		{
			name:    "Malformed JSON",
			body:    `{`,
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := runtime.ParseEvent(strings.NewReader(tt.body))
			if !tt.wantErr(t, err) {
				return
			}
			if tt.check != nil {
				tt.check(t, event)
			}
		})
	}
}

func TestRequireSpaceInstallation(t *testing.T) {
	var env *runtime.Environment
	_, err := env.RequireSpaceInstallation()
	assert.ErrorIs(t, err, serviceerr.ErrInstallationMissing)

	env = &runtime.Environment{}
	_, err = env.RequireSpaceInstallation()
	assert.ErrorIs(t, err, serviceerr.ErrInstallationMissing)

	env.SpaceInstallation = &runtime.SpaceInstallation{SpaceID: "sp_1"}
	si, err := env.RequireSpaceInstallation()
	require.NoError(t, err)
	assert.Equal(t, "sp_1", si.SpaceID)
}

func TestDecodeConfiguration(t *testing.T) {
	type oktaConfig struct {
		ClientID     string `config:"client_id"`
		ClientSecret string `config:"client_secret"`
		OktaDomain   string `config:"okta_domain"`
	}

	tests := []struct {
		name string
		raw  map[string]any
		want oktaConfig
	}{
		{
			name: "All fields",
			raw: map[string]any{
				"client_id":     "cid",
				"client_secret": "sec",
				"okta_domain":   "dev.okta.com",
			},
			want: oktaConfig{ClientID: "cid", ClientSecret: "sec", OktaDomain: "dev.okta.com"},
		},
		{
			name: "Partial map leaves zero values",
			raw:  map[string]any{"client_id": "cid"},
			want: oktaConfig{ClientID: "cid"},
		},
		{
			name: "Weakly typed values are coerced",
			raw:  map[string]any{"client_id": 42},
			want: oktaConfig{ClientID: "42"},
		},
		{
			name: "Nil map",
			raw:  nil,
			want: oktaConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got oktaConfig
			require.NoError(t, runtime.DecodeConfiguration(tt.raw, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
