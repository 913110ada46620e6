package webapp

import (
	"time"

	"github.com/drummonds/bibview/apiclient"
	"github.com/drummonds/bibview/viewer"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// GetAPIBaseURL returns the configured API base URL
// It reads from window.bibviewConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	config := app.Window().Get("bibviewConfig")
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			url := apiURL.String()
			if len(url) > 0 && url[len(url)-1] == '/' {
				return url[:len(url)-1]
			}
			return url
		}
	}
	return ""
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/documents/latest") -> "http://backend:8000/api/documents/latest"
// or just "/api/documents/latest" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path
	}
	return baseURL + path
}

// apiClient returns a backend client for the configured API URL. In the
// browser net/http goes through fetch, so relative URLs resolve against the
// page origin.
func apiClient() *apiclient.Client {
	return apiclient.NewClient(GetAPIBaseURL())
}

// pollInterval is window.bibviewConfig.pollInterval seconds, or the viewer
// default when unset
func pollInterval() time.Duration {
	if app.IsClient {
		config := app.Window().Get("bibviewConfig")
		if config.Truthy() {
			if secs := config.Get("pollInterval"); secs.Truthy() && secs.Int() > 0 {
				return time.Duration(secs.Int()) * time.Second
			}
		}
	}
	return viewer.DefaultPollInterval
}
