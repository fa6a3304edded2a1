package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the bucket and object surface of a project.
//
// This interface is implemented by the concrete *StorageClient type.
type Storage interface {
	// Buckets

	ListBuckets(ctx context.Context) ([]Bucket, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
	RemoveBucket(ctx context.Context, bucket string) error

	// Objects

	Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, opts ...UploadOptions) (Object, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Stat(ctx context.Context, bucket, key string) (Object, error)
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	Remove(ctx context.Context, bucket string, keys ...string) error

	// Presigned URLs

	SignedURL(ctx context.Context, bucket, key string, expiry ...time.Duration) (string, error)
	SignedUploadURL(ctx context.Context, bucket, key string, expiry ...time.Duration) (string, error)
}

// Bucket is a storage bucket.
type Bucket struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Object describes a stored object.
type Object struct {
	Bucket       string            `json:"bucket"`
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ETag         string            `json:"etag"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
