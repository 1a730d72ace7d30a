package serviceerr_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pagedeck/integrations/internal/serviceerr"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name        string
		err         *serviceerr.Error
		expectedMsg string
	}{
		{
			name:        "Error with description",
			err:         &serviceerr.Error{Code: serviceerr.CodeNotFound, Description: "route not found"},
			expectedMsg: "not_found: route not found",
		},
		{
			name:        "Error without description",
			err:         &serviceerr.Error{Code: serviceerr.CodeUpstreamAuth},
			expectedMsg: "upstream_auth_failure",
		},
		{
			name:        "Predefined error - ErrUnknown",
			err:         serviceerr.ErrUnknown,
			expectedMsg: "unknown: unknown error",
		},
		{
			name:        "Field helper",
			err:         serviceerr.ConfigurationMissing("client_id"),
			expectedMsg: "configuration_missing: missing configuration: client_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
		})
	}
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		name               string
		code               serviceerr.Code
		expectedHTTPStatus int
	}{
		{
			name:               "CodeConfigurationMissing returns BadRequest",
			code:               serviceerr.CodeConfigurationMissing,
			expectedHTTPStatus: http.StatusBadRequest,
		},
		{
			name:               "CodeUpstreamAuth returns Unauthorized",
			code:               serviceerr.CodeUpstreamAuth,
			expectedHTTPStatus: http.StatusUnauthorized,
		},
		{
			name:               "CodeNotFound returns NotFound",
			code:               serviceerr.CodeNotFound,
			expectedHTTPStatus: http.StatusNotFound,
		},
		{
			name:               "CodeDataMissing returns InternalServerError",
			code:               serviceerr.CodeDataMissing,
			expectedHTTPStatus: http.StatusInternalServerError,
		},
		{
			name:               "CodeSigning returns InternalServerError",
			code:               serviceerr.CodeSigning,
			expectedHTTPStatus: http.StatusInternalServerError,
		},
		{
			name:               "CodeInstallationMissing returns InternalServerError",
			code:               serviceerr.CodeInstallationMissing,
			expectedHTTPStatus: http.StatusInternalServerError,
		},
		{
			name:               "Unclassified code returns InternalServerError",
			code:               serviceerr.Code("weird"),
			expectedHTTPStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedHTTPStatus, tt.code.HTTPStatus())
		})
	}
}

func TestHTTPStatusFor(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "Wrapped sentinel resolves through the chain",
			err:            fmt.Errorf("validating configuration: %w", serviceerr.ConfigurationMissing("okta_domain")),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Plain sentinel",
			err:            serviceerr.ErrUpstreamAuth,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Foreign error defaults to InternalServerError",
			err:            fmt.Errorf("dial tcp: connection refused"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, serviceerr.HTTPStatusFor(tt.err))
		})
	}
}

func TestError_Is(t *testing.T) {
	wrapped := fmt.Errorf("decoding configuration: %w", serviceerr.ConfigurationMissing("project"))

	assert.ErrorIs(t, wrapped, serviceerr.ErrConfigurationMissing)
	assert.NotErrorIs(t, wrapped, serviceerr.ErrUpstreamAuth)
}
