package supabase

import "errors"

var (
	// ErrMissingURL is returned by Config.Validate and NewClient without a project URL.
	ErrMissingURL = errors.New("supabase: missing project url")

	// ErrMissingAPIKey is returned by Config.Validate without an API key.
	ErrMissingAPIKey = errors.New("supabase: missing api key")

	// ErrInvalidURL is returned when the project URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("supabase: invalid project url")

	// ErrStorageNotConfigured is returned by Storage without Config.Storage.
	ErrStorageNotConfigured = errors.New("supabase: storage is not configured")
)
