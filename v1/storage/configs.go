package storage

import (
	"context"
	"time"
)

// DefaultPresignExpiry is used by SignedURL and SignedUploadURL when no
// expiry is given.
const DefaultPresignExpiry = time.Hour

// Config describes an S3-compatible storage endpoint, such as the MinIO
// backend of a self-hosted project or a project's S3 gateway.
type Config struct {
	// Endpoint is host[:port] without scheme or path.
	Endpoint string

	// UseSSL selects https.
	UseSSL bool

	// Region avoids a bucket location lookup when set.
	Region string

	AccessKeyID     string
	SecretAccessKey string

	// SessionToken is sent with every request when set. Supabase accepts
	// the project ref and anon key as key pair with the user's JWT here.
	SessionToken string
}

// UploadOptions control Upload.
type UploadOptions struct {
	ContentType  string
	CacheControl string

	// Upsert overwrites an existing object. Without it Upload fails with
	// ErrObjectExists.
	Upsert bool

	// Metadata is stored as user metadata on the object.
	Metadata map[string]string
}

// Logger is an interface that matches the v1/logger.Logger interface.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
