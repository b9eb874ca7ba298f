// Package graphapi is a minimal Microsoft Graph client covering what the
// archive pipeline needs: a client-credentials token, site lookup by display
// name, and drive uploads.
package graphapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mmdatafocus/stockcount_archiver/config"
)

type Client struct {
	baseURL string
	http    *http.Client
	tokens  oauth2.TokenSource
}

// NewClient builds a Graph client for the given tenant/app registration.
// The token source caches the access token behind a single-writer lock and
// re-exchanges only on expiry, so concurrent requests share one credential.
func NewClient(cfg *config.SharePointConfig) *Client {
	loginBase := strings.TrimRight(cfg.LoginBaseURL, "/")
	graphBase := strings.TrimRight(cfg.GraphBaseURL, "/")

	httpClient := &http.Client{Timeout: 30 * time.Second}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     loginBase + "/" + cfg.TenantId + "/oauth2/v2.0/token",
		Scopes:       []string{graphBase + "/.default"},
	}
	// Route the token exchange through the same timed client.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &Client{
		baseURL: graphBase + "/v1.0",
		http:    httpClient,
		tokens:  cc.TokenSource(tokenCtx),
	}
}

// Authenticate forces a token exchange (or cache hit) before any Graph call
// is attempted, so credential problems fail the pipeline up front.
func (c *Client) Authenticate() error {
	if _, err := c.tokens.Token(); err != nil {
		return fmt.Errorf("failed to acquire access token: %w", err)
	}
	return nil
}

// ResolveSiteId looks up a SharePoint site by exact display name and returns
// its site id. Zero matches is an error; so is more than one, since silently
// archiving into an arbitrary same-named site would be worse than failing.
func (c *Client) ResolveSiteId(ctx context.Context, displayName string) (string, error) {
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("displayName eq '%s'", displayName))

	body, err := c.do(ctx, http.MethodGet, "/sites?"+params.Encode(), nil, "")
	if err != nil {
		return "", err
	}

	var parsed siteListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse site lookup response: %w", err)
	}
	if len(parsed.Value) == 0 {
		return "", fmt.Errorf("SharePoint site '%s' not found", displayName)
	}
	if len(parsed.Value) > 1 {
		return "", fmt.Errorf("SharePoint site name '%s' is ambiguous: %d sites matched", displayName, len(parsed.Value))
	}
	return parsed.Value[0].Id, nil
}

// UploadDriveItem writes content as a single file into the named library of
// the site's default drive, creating or replacing it in one PUT.
func (c *Client) UploadDriveItem(ctx context.Context, siteId, libraryName, fileName string, content []byte, contentType string) error {
	path := fmt.Sprintf("/sites/%s/drive/root:/%s/%s:/content",
		siteId, url.PathEscape(libraryName), url.PathEscape(fileName))

	if _, err := c.do(ctx, http.MethodPut, path, content, contentType); err != nil {
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, contentType string) ([]byte, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire access token: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graph api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
