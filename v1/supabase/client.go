package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/supabase-go/v1/auth"
	"github.com/Aleph-Alpha/supabase-go/v1/observability"
	"github.com/Aleph-Alpha/supabase-go/v1/postgrest"
	"github.com/Aleph-Alpha/supabase-go/v1/realtime"
	"github.com/Aleph-Alpha/supabase-go/v1/storage"
)

// Client is the handle to one project. The auth, query and realtime
// surfaces derived from it share the signed-in user's access token.
type Client struct {
	url    string
	apiKey string

	auth     *auth.AuthClient
	rest     *postgrest.PostgrestClient
	realtime *realtime.RealtimeClient
	storage  *storage.StorageClient

	authSub *auth.Subscription
	logger  Logger
}

// NewClient builds the project handle. It fails only when the project URL
// is not an absolute http(s) URL; nothing is sent until an operation runs.
//
// Example:
//
//	client, err := supabase.NewClient(supabase.Config{
//	    URL:    "https://xyzcompany.supabase.co",
//	    APIKey: anonKey,
//	})
//	if err != nil {
//	    return err
//	}
//	var rows []Message
//	_, err = client.From("messages").Select("*").ExecuteTo(ctx, &rows)
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	u, err := parseProjectURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(u.String(), "/")

	authOpts := cfg.Auth
	if authOpts.HTTPClient == nil && cfg.HTTPClient != nil {
		authOpts.HTTPClient = cfg.HTTPClient
	}

	authClient, err := auth.NewClient(auth.Config{
		URL:     base + "/auth/v1",
		APIKey:  cfg.APIKey,
		Headers: cfg.Headers,
		Timeout: cfg.Timeout,
		Options: authOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: auth: %w", err)
	}

	restClient, err := postgrest.NewClient(postgrest.Config{
		URL:         base + "/rest/v1",
		APIKey:      cfg.APIKey,
		Schema:      cfg.Schema,
		Headers:     cfg.Headers,
		Timeout:     cfg.Timeout,
		HTTPClient:  cfg.HTTPClient,
		AccessToken: authClient.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: postgrest: %w", err)
	}

	realtimeClient, err := realtime.NewClient(realtime.Config{
		URL:     base + "/realtime/v1/websocket",
		APIKey:  cfg.APIKey,
		Headers: cfg.Headers,
		Options: cfg.Realtime,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: realtime: %w", err)
	}

	c := &Client{
		url:      base,
		apiKey:   cfg.APIKey,
		auth:     authClient,
		rest:     restClient,
		realtime: realtimeClient,
	}

	if cfg.Storage != nil {
		c.storage, err = storage.NewClient(*cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("supabase: storage: %w", err)
		}
	}

	c.authSub = authClient.OnAuthStateChange(c.forwardToken)
	return c, nil
}

// forwardToken keeps realtime authorized as the signed-in user.
func (c *Client) forwardToken(event auth.AuthChangeEvent, session *auth.Session) {
	token := c.apiKey
	if session != nil && event != auth.SignedOut {
		token = session.AccessToken
	}

	if err := c.realtime.SetAuth(context.Background(), token); err != nil && c.logger != nil {
		c.logger.WarnWithContext(context.Background(), "failed to update realtime access token", err, map[string]interface{}{
			"event": string(event),
		})
	}
}

// WithLogger sets the logger on every surface and returns the client for method chaining.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	c.auth.WithLogger(logger)
	c.rest.WithLogger(logger)
	c.realtime.WithLogger(logger)
	if c.storage != nil {
		c.storage.WithLogger(logger)
	}
	return c
}

// WithObserver sets the observer on every surface and returns the client for method chaining.
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.auth.WithObserver(observer)
	c.rest.WithObserver(observer)
	c.realtime.WithObserver(observer)
	if c.storage != nil {
		c.storage.WithObserver(observer)
	}
	return c
}

// URL returns the normalized project URL.
func (c *Client) URL() string { return c.url }

// Auth returns the auth surface.
func (c *Client) Auth() *auth.AuthClient { return c.auth }

// Postgrest returns the query client for the configured schema.
func (c *Client) Postgrest() *postgrest.PostgrestClient { return c.rest }

// From starts a query on table.
func (c *Client) From(table string) *postgrest.QueryBuilder {
	return c.rest.From(table)
}

// Schema returns a query client bound to a different exposed schema.
func (c *Client) Schema(name string) *postgrest.PostgrestClient {
	return c.rest.Schema(name)
}

// Rpc calls a database function.
func (c *Client) Rpc(function string, args interface{}) *postgrest.QueryBuilder {
	return c.rest.Rpc(function, args)
}

// Realtime returns the realtime client.
func (c *Client) Realtime() *realtime.RealtimeClient { return c.realtime }

// Channel creates a realtime channel. Nothing is sent until Subscribe.
func (c *Client) Channel(name string, opts ...realtime.ChannelOptions) *realtime.Channel {
	return c.realtime.Channel(name, opts...)
}

// RemoveAllChannels leaves every channel and closes the realtime socket.
func (c *Client) RemoveAllChannels(ctx context.Context) error {
	return c.realtime.RemoveAllChannels(ctx)
}

// Storage returns the storage client, or ErrStorageNotConfigured.
func (c *Client) Storage() (*storage.StorageClient, error) {
	if c.storage == nil {
		return nil, ErrStorageNotConfigured
	}
	return c.storage, nil
}

// Close stops forwarding auth changes and removes every realtime channel.
// The session is kept.
func (c *Client) Close(ctx context.Context) error {
	c.authSub.Unsubscribe()
	return c.RemoveAllChannels(ctx)
}
