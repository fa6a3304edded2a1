// Package metrics exposes Prometheus metrics for the Supabase clients.
//
// *Metrics implements observability.Observer: hand it to the clients with
// WithObserver and every auth call, query, realtime subscription and storage
// request is counted and timed.
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "guestbook"})
//	go m.Server.ListenAndServe()
//
// Exposed series:
//   - supabase_operations_total{component, operation, status}
//   - supabase_operation_duration_seconds{component, operation}
//   - supabase_payload_bytes_total{component}
//
// Additional application metrics can be registered on the same registry with
// CreateCounter, CreateHistogram and CreateGauge.
package metrics
