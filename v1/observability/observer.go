// Package observability defines the hook the clients in this module use to
// report the operations they perform.
//
// Each client (auth, postgrest, realtime, storage) accepts an optional Observer
// through WithObserver. When set, every remote operation is reported once it
// completes, successfully or not. The metrics package ships a Prometheus-backed
// implementation; applications may provide their own.
package observability

import "time"

// Observer receives a notification for every completed client operation.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a single completed operation.
type OperationContext struct {
	// Component is the reporting client, e.g. "auth", "postgrest", "realtime".
	Component string

	// Operation is the operation name, e.g. "signInWithPassword", "select", "subscribe".
	Operation string

	// Resource is the main object operated on (table, channel topic, bucket).
	Resource string

	// SubResource carries extra context such as an event type or object key.
	SubResource string

	// Duration is the wall time of the operation.
	Duration time.Duration

	// Error is the error returned to the caller, if any.
	Error error

	// Size is the payload size in bytes when known.
	Size int64

	// Metadata holds component specific values (HTTP status, row count...).
	Metadata map[string]interface{}
}
