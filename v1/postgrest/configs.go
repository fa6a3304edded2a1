package postgrest

import (
	"context"
	"net/http"
	"time"
)

// Config contains the settings for the query client.
type Config struct {
	// URL is the PostgREST root, e.g. https://xyzcompany.supabase.co/rest/v1.
	URL string

	// APIKey is the project's anon or service key.
	APIKey string

	// Schema selects a non-default exposed schema. Empty means the server default.
	Schema string

	// Headers are added to every request.
	Headers map[string]string

	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration

	// HTTPClient overrides the default *http.Client.
	HTTPClient HTTPClient

	// AccessToken returns the bearer token for the next request, normally the
	// signed-in user's JWT. Nil or "" falls back to APIKey.
	AccessToken func() string
}

// HTTPClient executes HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Logger is an interface that matches the v1/logger.Logger interface.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
