// Package hostapi is a client for the documentation platform's REST API.
// Adapters consume it through small interfaces declared in their own
// packages, so tests can substitute fakes without touching HTTP.
package hostapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pagedeck/integrations/internal/config"
	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// publishedURLs caches space -> published URL lookups only. Installation
	// configuration is never cached; it is read fresh on every event.
	publishedURLs *gocache.Cache
}

func NewClient(cfg config.HostAPI, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.Endpoint, "/"),
		token:         cfg.Token,
		httpClient:    httpClient,
		publishedURLs: gocache.New(cfg.PublishedURLCacheTTL, 2*cfg.PublishedURLCacheTTL),
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type space struct {
	ID   string `json:"id"`
	URLs struct {
		Published string `json:"published"`
	} `json:"urls"`
}

type installation struct {
	ID            string         `json:"id"`
	SigningKey    string         `json:"signingKey"`
	Configuration map[string]any `json:"configuration"`
}

// SearchResult is one hit from the space content search API.
type SearchResult struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Body  string `json:"body"`
}

// GetPublishedURL returns the published-content URL of a space. The result is
// cached for a short TTL; a space without a published URL is ErrDataMissing.
func (c *Client) GetPublishedURL(ctx context.Context, spaceID string) (string, error) {
	if cached, ok := c.publishedURLs.Get(spaceID); ok {
		return cached.(string), nil
	}

	var sp space
	if err := c.do(ctx, http.MethodGet, "/spaces/"+url.PathEscape(spaceID), nil, &sp); err != nil {
		return "", fmt.Errorf("fetching space %s: %w", spaceID, err)
	}

	if sp.URLs.Published == "" {
		return "", fmt.Errorf("space %s has no published URL: %w", spaceID, serviceerr.ErrDataMissing)
	}

	c.publishedURLs.SetDefault(spaceID, sp.URLs.Published)

	return sp.URLs.Published, nil
}

// GetSpaceInstallation reads the space installation record, including the
// customer's configuration, fresh from the host platform.
func (c *Client) GetSpaceInstallation(ctx context.Context, integration, installationID, spaceID string) (*runtime.SpaceInstallation, error) {
	var si runtime.SpaceInstallation
	path := c.spaceInstallationPath(integration, installationID, spaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, &si); err != nil {
		return nil, fmt.Errorf("fetching space installation: %w", err)
	}

	return &si, nil
}

// UpdateSpaceInstallationConfiguration writes a new configuration object for
// the space installation. The write is a single host API call; the host
// platform serialises lifecycle events per installation, so no local
// concurrency control is layered on top.
func (c *Client) UpdateSpaceInstallationConfiguration(ctx context.Context, integration, installationID, spaceID string, configuration map[string]any) error {
	body := map[string]any{"configuration": configuration}
	path := c.spaceInstallationPath(integration, installationID, spaceID)
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("updating space installation configuration: %w", err)
	}

	return nil
}

// LoadEnvironment implements runtime.Loader for requests that carry only the
// installation identity in the URL (browser redirects, provider webhooks).
func (c *Client) LoadEnvironment(ctx context.Context, integration, installationID, spaceID string) (*runtime.Environment, error) {
	var inst installation
	path := "/integrations/" + url.PathEscape(integration) + "/installations/" + url.PathEscape(installationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &inst); err != nil {
		return nil, fmt.Errorf("fetching installation: %w", err)
	}

	si, err := c.GetSpaceInstallation(ctx, integration, installationID, spaceID)
	if err != nil {
		return nil, err
	}

	return &runtime.Environment{
		IntegrationName: integration,
		SpaceID:         spaceID,
		Installation: &runtime.Installation{
			ID:            inst.ID,
			Configuration: inst.Configuration,
		},
		SpaceInstallation: si,
		SigningKey:        inst.SigningKey,
	}, nil
}

// SearchContent runs the host platform's content search for a space.
func (c *Client) SearchContent(ctx context.Context, spaceID, query string) ([]SearchResult, error) {
	var out struct {
		Results []SearchResult `json:"results"`
	}

	path := "/spaces/" + url.PathEscape(spaceID) + "/search?query=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("searching space %s: %w", spaceID, err)
	}

	return out.Results, nil
}

// TriggerImport asks the host platform to (re-)import space content from an
// external source URL.
func (c *Client) TriggerImport(ctx context.Context, spaceID, source string) error {
	body := map[string]any{"url": source}
	path := "/spaces/" + url.PathEscape(spaceID) + "/content/import"
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("triggering import for space %s: %w", spaceID, err)
	}

	return nil
}

func (c *Client) spaceInstallationPath(integration, installationID, spaceID string) string {
	return "/integrations/" + url.PathEscape(integration) +
		"/installations/" + url.PathEscape(installationID) +
		"/spaces/" + url.PathEscape(spaceID)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return serviceerr.ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)

		return fmt.Errorf("host API returned %d: %s", resp.StatusCode, apiErr.Error.Message)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
