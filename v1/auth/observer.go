package auth

import (
	"time"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

const componentName = "auth"

// observeOperation notifies the observer about an operation if one is configured.
func (a *AuthClient) observeOperation(operation, resource string, duration time.Duration, err error, size int64) {
	if a.observer != nil {
		a.observer.ObserveOperation(observability.OperationContext{
			Component: componentName,
			Operation: operation,
			Resource:  resource,
			Duration:  duration,
			Error:     err,
			Size:      size,
		})
	}
}
