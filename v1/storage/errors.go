package storage

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
)

var (
	ErrMissingEndpoint = errors.New("storage: endpoint is required")
	ErrBucketNotFound  = errors.New("storage: bucket not found")
	ErrObjectNotFound  = errors.New("storage: object not found")
	ErrObjectExists    = errors.New("storage: object already exists")
	ErrAccessDenied    = errors.New("storage: access denied")
	ErrBucketExists    = errors.New("storage: bucket already exists")
)

// translateError maps S3 error codes onto the sentinels above. The
// original error stays in the chain for errors.As.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return fmt.Errorf("%w: %w", ErrBucketExists, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return fmt.Errorf("storage: %w", err)
}

// IsNotFound reports whether err means the bucket or object is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied reports whether the credentials were rejected.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
