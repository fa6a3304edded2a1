package storage

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
//
// Notes:
//   - resource: bucket name
//   - subResource: object key
func (s *StorageClient) observeOperation(operation, bucket, key string, duration time.Duration, err error, size int64) {
	if s == nil || s.observer == nil {
		return
	}

	s.observer.ObserveOperation(observability.OperationContext{
		Component:   "storage",
		Operation:   operation,
		Resource:    bucket,
		SubResource: key,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}

func (s *StorageClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (s *StorageClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.WarnWithContext(ctx, msg, err, fields)
	}
}
