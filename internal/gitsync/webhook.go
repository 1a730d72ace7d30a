package gitsync

import "github.com/pagedeck/integrations/internal/runtime"

// shouldUpdateWebhook decides whether the previously installed webhook must be
// torn down and recreated. A stale webhook keeps delivering to the wrong
// project or with the wrong credentials, so any change to the fields that
// shaped the registration forces a reinstall. The pending-to-configured
// transition (previous status pending, no ref yet, ref now present) marks the
// first moment a webhook can be installed at all.
func shouldUpdateWebhook(next, previous Config, previousStatus runtime.Status) bool {
	if next.Project != previous.Project {
		return true
	}
	if next.AuthToken != previous.AuthToken {
		return true
	}
	if next.Host != previous.Host {
		return true
	}
	if previousStatus == runtime.StatusPending && previous.Ref == "" && next.Ref != "" {
		return true
	}

	return false
}
