package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/supabase-go/v1/auth"
	"github.com/Aleph-Alpha/supabase-go/v1/realtime"
	"github.com/Aleph-Alpha/supabase-go/v1/storage"
)

// Config holds everything needed to talk to one project.
type Config struct {
	// URL is the project URL, e.g. https://xyzcompany.supabase.co.
	URL string

	// APIKey is the anon or service_role key.
	APIKey string

	// Schema selects the exposed database schema for queries.
	Schema string

	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration

	// Headers are added to every HTTP request and the websocket handshake.
	Headers map[string]string

	// HTTPClient overrides the default *http.Client for auth and queries.
	HTTPClient HTTPClient

	Auth     auth.Options
	Realtime realtime.Options

	// Storage enables Storage when set. The S3 endpoint is configured
	// separately because it is addressed by host, not by project path.
	Storage *storage.Config
}

// NewConfig reads from environment variables:
//
//	SUPABASE_URL, SUPABASE_KEY, SUPABASE_SCHEMA,
//	SUPABASE_HTTP_TIMEOUT_SECONDS (default 30),
//	SUPABASE_STORAGE_ENDPOINT, SUPABASE_STORAGE_REGION,
//	SUPABASE_STORAGE_ACCESS_KEY, SUPABASE_STORAGE_SECRET_KEY,
//	SUPABASE_STORAGE_USE_SSL.
func NewConfig() *Config {
	timeout := 30
	if v := os.Getenv("SUPABASE_HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = n
		}
	}

	cfg := &Config{
		URL:     os.Getenv("SUPABASE_URL"),
		APIKey:  os.Getenv("SUPABASE_KEY"),
		Schema:  os.Getenv("SUPABASE_SCHEMA"),
		Timeout: time.Duration(timeout) * time.Second,
	}

	if endpoint := os.Getenv("SUPABASE_STORAGE_ENDPOINT"); endpoint != "" {
		useSSL, _ := strconv.ParseBool(os.Getenv("SUPABASE_STORAGE_USE_SSL"))
		cfg.Storage = &storage.Config{
			Endpoint:        endpoint,
			UseSSL:          useSSL,
			Region:          os.Getenv("SUPABASE_STORAGE_REGION"),
			AccessKeyID:     os.Getenv("SUPABASE_STORAGE_ACCESS_KEY"),
			SecretAccessKey: os.Getenv("SUPABASE_STORAGE_SECRET_KEY"),
		}
	}
	return cfg
}

// Validate ensures required fields are present. NewClient does not call it;
// a missing key is otherwise reported by the server on first use.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: set SUPABASE_URL", ErrMissingURL)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: set SUPABASE_KEY", ErrMissingAPIKey)
	}
	_, err := parseProjectURL(c.URL)
	return err
}

func parseProjectURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
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
