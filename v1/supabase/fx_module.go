package supabase

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/supabase-go/v1/auth"
	"github.com/Aleph-Alpha/supabase-go/v1/observability"
	"github.com/Aleph-Alpha/supabase-go/v1/postgrest"
	"github.com/Aleph-Alpha/supabase-go/v1/realtime"
	"github.com/Aleph-Alpha/supabase-go/v1/storage"
)

// FXModule wires the project client into Fx.
//
// It provides:
//   - *Client                     (NewClientWithDI)
//   - *auth.AuthClient, auth.Auth (from the client)
//   - *postgrest.PostgrestClient  (from the client)
//   - *realtime.RealtimeClient    (from the client)
//   - *storage.StorageClient, storage.Storage (from the client; requesting
//     them without Config.Storage fails with ErrStorageNotConfigured)
//   - Lifecycle hook              (RegisterSupabaseLifecycle)
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    supabase.FXModule,
//	    fx.Provide(func() supabase.Config { return *supabase.NewConfig() }),
//	)
var FXModule = fx.Module("supabase",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) *auth.AuthClient { return c.Auth() },
		fx.Annotate(
			func(c *Client) auth.Auth { return c.Auth() },
			fx.As(new(auth.Auth)),
		),
		func(c *Client) *postgrest.PostgrestClient { return c.Postgrest() },
		func(c *Client) *realtime.RealtimeClient { return c.Realtime() },
		func(c *Client) (*storage.StorageClient, error) { return c.Storage() },
		fx.Annotate(
			func(s *storage.StorageClient) storage.Storage { return s },
			fx.As(new(storage.Storage)),
		),
	),
	fx.Invoke(RegisterSupabaseLifecycle),
)

// SupabaseParams groups the dependencies needed to create a Client.
type SupabaseParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a Client from injected dependencies.
func NewClientWithDI(params SupabaseParams) (*Client, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	return client, nil
}

// RegisterSupabaseLifecycle closes the client's realtime channels when the
// application stops.
func RegisterSupabaseLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close(ctx)
		},
	})
}
