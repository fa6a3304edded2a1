package realtime

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

const componentName = "realtime"

// observeOperation notifies the observer about an operation if one is configured.
func (c *RealtimeClient) observeOperation(operation, topic string, duration time.Duration, err error, size int64) {
	if c.observer != nil {
		c.observer.ObserveOperation(observability.OperationContext{
			Component: componentName,
			Operation: operation,
			Resource:  topic,
			Duration:  duration,
			Error:     err,
			Size:      size,
		})
	}
}

func (c *RealtimeClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (c *RealtimeClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (c *RealtimeClient) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
