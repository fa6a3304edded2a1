package postgrest

import (
	"time"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

const componentName = "postgrest"

// observeOperation notifies the observer about an operation if one is configured.
func (c *PostgrestClient) observeOperation(operation, table string, duration time.Duration, err error, size int64) {
	if c.observer != nil {
		c.observer.ObserveOperation(observability.OperationContext{
			Component: componentName,
			Operation: operation,
			Resource:  table,
			Duration:  duration,
			Error:     err,
			Size:      size,
		})
	}
}
