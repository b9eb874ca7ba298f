package config

import (
	"errors"
	"os"
	"strings"
)

const (
	defaultSiteName    = "Operations Stock Count"
	defaultLibraryName = "Documents"

	defaultLoginBaseURL = "https://login.microsoftonline.com"
	defaultGraphBaseURL = "https://graph.microsoft.com"
)

// SharePointConfig carries everything the archive pipeline needs to talk to
// Entra ID and Microsoft Graph. It is loaded once at startup and passed in
// explicitly so tests can point the pipeline at a fake server.
type SharePointConfig struct {
	TenantId     string
	ClientId     string
	ClientSecret string

	// SiteName is the display name of the SharePoint site that receives the
	// archives; LibraryName is the document library inside it.
	SiteName    string
	LibraryName string

	LoginBaseURL string
	GraphBaseURL string
}

// LoadSharePointConfig reads the SharePoint settings from the environment.
// Env:
// - SHAREPOINT_TENANT_ID, SHAREPOINT_CLIENT_ID, SHAREPOINT_CLIENT_SECRET (required)
// - SHAREPOINT_SITE_NAME, SHAREPOINT_LIBRARY_NAME
// - SHAREPOINT_LOGIN_BASE_URL, SHAREPOINT_GRAPH_BASE_URL
func LoadSharePointConfig() (*SharePointConfig, error) {
	cfg := &SharePointConfig{
		TenantId:     strings.TrimSpace(os.Getenv("SHAREPOINT_TENANT_ID")),
		ClientId:     strings.TrimSpace(os.Getenv("SHAREPOINT_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("SHAREPOINT_CLIENT_SECRET")),
		SiteName:     strings.TrimSpace(os.Getenv("SHAREPOINT_SITE_NAME")),
		LibraryName:  strings.TrimSpace(os.Getenv("SHAREPOINT_LIBRARY_NAME")),
		LoginBaseURL: strings.TrimSpace(os.Getenv("SHAREPOINT_LOGIN_BASE_URL")),
		GraphBaseURL: strings.TrimSpace(os.Getenv("SHAREPOINT_GRAPH_BASE_URL")),
	}

	if cfg.TenantId == "" || cfg.ClientId == "" || cfg.ClientSecret == "" {
		return nil, errors.New("SHAREPOINT_TENANT_ID, SHAREPOINT_CLIENT_ID and SHAREPOINT_CLIENT_SECRET are required")
	}

	if cfg.SiteName == "" {
		cfg.SiteName = defaultSiteName
	}
	if cfg.LibraryName == "" {
		cfg.LibraryName = defaultLibraryName
	}
	if cfg.LoginBaseURL == "" {
		cfg.LoginBaseURL = defaultLoginBaseURL
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = defaultGraphBaseURL
	}

	return cfg, nil
}
