package gitsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Client talks to the GitLab REST API (v4) with the installation's project
// access token.
type Client struct {
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{httpClient: httpClient}
}

// AddProjectHook registers a push webhook on the configured project and
// returns the identifier GitLab assigned to it.
func (c *Client) AddProjectHook(ctx context.Context, cfg Config, callbackURL, secretToken string) (int64, error) {
	body, err := json.Marshal(map[string]any{
		"url":                     callbackURL,
		"push_events":             true,
		"merge_requests_events":   false,
		"enable_ssl_verification": true,
		"token":                   secretToken,
	})
	if err != nil {
		return 0, fmt.Errorf("encoding hook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hooksURL(cfg), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", cfg.AuthToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gitlab returned %d installing hook", resp.StatusCode)
	}

	var hook struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hook); err != nil {
		return 0, fmt.Errorf("decoding hook response: %w", err)
	}

	return hook.ID, nil
}

// DeleteProjectHook removes a previously installed webhook. A 404 is treated
// as success: the hook is already gone, which is the state we want.
func (c *Client) DeleteProjectHook(ctx context.Context, cfg Config, hookID int64) error {
	target := c.hooksURL(cfg) + "/" + strconv.FormatInt(hookID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", cfg.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("gitlab returned %d deleting hook %d", resp.StatusCode, hookID)
	}

	return nil
}

func (c *Client) hooksURL(cfg Config) string {
	return "https://" + cfg.HostOrDefault() + "/api/v4/projects/" + url.PathEscape(cfg.Project) + "/hooks"
}
