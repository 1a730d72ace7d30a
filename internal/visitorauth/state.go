package visitorauth

import "strings"

const statePrefix = "state-"

// EncodeState wraps the originally requested location in the opaque state
// parameter threaded through the authorization redirect.
func EncodeState(location string) string {
	return statePrefix + location
}

// DecodeState recovers the location from a state parameter. Only the first
// "-" acts as the separator, so any "-" characters inside the location are
// preserved verbatim. A state without a separator decodes to the empty
// location, which sends the visitor to the published root.
func DecodeState(state string) string {
	idx := strings.Index(state, "-")
	if idx < 0 {
		return ""
	}

	return state[idx+1:]
}
