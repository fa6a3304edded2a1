package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing client operation metrics.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	Registry *prometheus.Registry

	registerer prometheus.Registerer

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	payloadBytes      *prometheus.CounterVec
}

// NewMetrics initializes and returns a new instance of the Metrics struct.
// It sets up a dedicated Prometheus registry, wraps it with a constant
// `service` label, registers the operation metrics fed by ObserveOperation and
// creates an HTTP server exposing the /metrics endpoint.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    ServiceName: "guestbook",
//	})
//	go m.Server.ListenAndServe()
//
//	client, _ := supabase.NewClient(cfg)
//	client.WithObserver(m)
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)
	if cfg.Namespace != "" {
		wrappedRegistry = prometheus.WrapRegistererWithPrefix(cfg.Namespace+"_", wrappedRegistry)
	}

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
	}

	m.operationsTotal = createCounterVec(
		"supabase_operations_total",
		"Total number of completed Supabase client operations",
		[]string{"component", "operation", "status"},
	)
	m.operationDuration = createHistogramVec(
		"supabase_operation_duration_seconds",
		"Duration of Supabase client operations in seconds",
		[]string{"component", "operation"},
		prometheus.DefBuckets,
	)
	m.payloadBytes = createCounterVec(
		"supabase_payload_bytes_total",
		"Bytes received from the Supabase services",
		[]string{"component"},
	)

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.payloadBytes,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}

	m.Server = &http.Server{
		Addr:    address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
