// Package tracer configures OpenTelemetry tracing for applications built on
// the Supabase clients. It installs a global tracer provider; the auth,
// postgrest, realtime and storage clients pick it up automatically.
package tracer
