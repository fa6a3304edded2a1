package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Aleph-Alpha/supabase-go/internal/rest"
	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// PostgrestClient is the entry point of the query surface. It is safe for
// concurrent use; every From call returns an independent builder.
type PostgrestClient struct {
	rest   *rest.Client
	schema string

	logger   Logger
	observer observability.Observer
}

// NewClient creates a PostgrestClient. No request is made.
func NewClient(cfg Config) (*PostgrestClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgrest: url is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("postgrest: invalid url %q: %w", cfg.URL, err)
	}

	return &PostgrestClient{
		rest: rest.NewClient(rest.Options{
			BaseURL:   cfg.URL,
			APIKey:    cfg.APIKey,
			Headers:   cfg.Headers,
			Timeout:   cfg.Timeout,
			HTTP:      cfg.HTTPClient,
			Token:     cfg.AccessToken,
			Component: componentName,
		}),
		schema: cfg.Schema,
	}, nil
}

// WithObserver sets the observer for this client and returns the client for method chaining.
func (c *PostgrestClient) WithObserver(observer observability.Observer) *PostgrestClient {
	c.observer = observer
	return c
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (c *PostgrestClient) WithLogger(logger Logger) *PostgrestClient {
	c.logger = logger
	return c
}

// Schema returns a client that targets another exposed schema. The receiver
// is not modified.
func (c *PostgrestClient) Schema(name string) *PostgrestClient {
	cp := *c
	cp.schema = name
	return &cp
}

// From starts a query against a table or view. Without a mutation the
// builder performs a select of all columns.
func (c *PostgrestClient) From(table string) *QueryBuilder {
	b := newBuilder(c, "/"+url.PathEscape(table), table)
	if table == "" {
		b.err = ErrMissingTable
	}
	return b
}

// Rpc calls a Postgres function. args is sent as the JSON body.
func (c *PostgrestClient) Rpc(function string, args interface{}) *QueryBuilder {
	b := newBuilder(c, "/rpc/"+url.PathEscape(function), function)
	b.method = http.MethodPost
	b.operation = "rpc"
	b.body = args
	if args == nil {
		b.body = map[string]interface{}{}
	}
	return b
}

func (c *PostgrestClient) logWarn(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, nil, fields)
	}
}
