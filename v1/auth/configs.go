package auth

import (
	"context"
	"time"
)

// DefaultStorageKey is the key under which the session is persisted.
const DefaultStorageKey = "supabase.auth.token"

// DefaultExpiryMargin is how long before expires_at a session is treated as expired.
const DefaultExpiryMargin = 10 * time.Second

// Config contains the settings for the auth client.
type Config struct {
	// URL is the GoTrue root, e.g. https://xyzcompany.supabase.co/auth/v1.
	URL string

	// APIKey is the project's anon or service key.
	APIKey string

	// Headers are added to every request.
	Headers map[string]string

	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration

	Options
}

// Options are the caller-tunable parts of Config that do not depend on the
// project URL. The supabase facade forwards them unchanged.
type Options struct {
	// Store persists the session. Nil means an in-memory store.
	Store SessionStore

	// StorageKey names the persisted session. Defaults to DefaultStorageKey.
	StorageKey string

	// ExpiryMargin defaults to DefaultExpiryMargin.
	ExpiryMargin time.Duration

	// HTTPClient overrides the default *http.Client.
	HTTPClient HTTPClient
}

// Logger is an interface that matches the v1/logger.Logger interface.
//
//go:generate mockgen -source=configs.go -destination=mock_logger.go -package=auth
type Logger interface {
	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
