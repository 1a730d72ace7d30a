// Package serviceerr defines the error taxonomy shared by all integration
// adapters and the HTTP layer that maps them to response status codes.
package serviceerr

import (
	"errors"
	"net/http"
)

// Code classifies a failure independently of the adapter that produced it.
type Code string

const (
	CodeConfigurationMissing Code = "configuration_missing"
	CodeUpstreamAuth         Code = "upstream_auth_failure"
	CodeDataMissing          Code = "data_missing"
	CodeSigning              Code = "signing_failure"
	CodeInstallationMissing  Code = "installation_missing"
	CodeNotFound             Code = "not_found"
	CodeUnknown              Code = "unknown"
)

// HTTPStatus maps a code onto the status the adapter surfaces to the caller.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeConfigurationMissing:
		return http.StatusBadRequest
	case CodeUpstreamAuth:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Code        Code
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}

	return string(e.Code) + ": " + e.Description
}

// Is matches any error carrying the same code, so wrapped errors still
// compare equal to the predefined sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.Code == e.Code
}

var (
	ErrConfigurationMissing = &Error{Code: CodeConfigurationMissing, Description: "missing configuration"}
	ErrUpstreamAuth         = &Error{Code: CodeUpstreamAuth, Description: "upstream authentication failed"}
	ErrDataMissing          = &Error{Code: CodeDataMissing, Description: "required data missing"}
	ErrSigning              = &Error{Code: CodeSigning, Description: "token signing failed"}
	ErrInstallationMissing  = &Error{Code: CodeInstallationMissing, Description: "no installation in event context"}
	ErrNotFound             = &Error{Code: CodeNotFound, Description: "not found"}
	ErrUnknown              = &Error{Code: CodeUnknown, Description: "unknown error"}
)

// ConfigurationMissing reports a missing installation-configuration field by
// name. It compares equal to ErrConfigurationMissing via errors.Is.
func ConfigurationMissing(field string) *Error {
	return &Error{Code: CodeConfigurationMissing, Description: "missing configuration: " + field}
}

// HTTPStatusFor resolves any error, wrapped or not, to a response status.
func HTTPStatusFor(err error) int {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code.HTTPStatus()
	}

	return http.StatusInternalServerError
}
