package storage

import (
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// StorageClient talks to an S3-compatible storage endpoint with minio-go.
type StorageClient struct {
	client *minio.Client
	cfg    Config

	observer observability.Observer
	logger   Logger
}

var _ Storage = (*StorageClient)(nil)

// NewClient creates a StorageClient. Creating the client does not contact
// the endpoint; credentials are checked by the first request.
//
// Example:
//
//	client, err := storage.NewClient(storage.Config{
//	    Endpoint:        "localhost:9000",
//	    Region:          "us-east-1",
//	    AccessKeyID:     os.Getenv("STORAGE_ACCESS_KEY"),
//	    SecretAccessKey: os.Getenv("STORAGE_SECRET_KEY"),
//	})
func NewClient(cfg Config) (*StorageClient, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &StorageClient{client: client, cfg: cfg}, nil
}

// WithObserver sets the observer for this client and returns the client for method chaining.
func (s *StorageClient) WithObserver(observer observability.Observer) *StorageClient {
	s.observer = observer
	return s
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (s *StorageClient) WithLogger(logger Logger) *StorageClient {
	s.logger = logger
	return s
}

// Endpoint returns the configured host[:port].
func (s *StorageClient) Endpoint() string {
	return s.cfg.Endpoint
}
