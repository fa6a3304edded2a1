package realtime

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// FXModule is an fx.Module that provides the realtime client and closes
// its channels when the application stops.
//
// Usage:
//
//	app := fx.New(
//	    realtime.FXModule,
//	    fx.Provide(func() realtime.Config { return loadRealtimeConfig() }),
//	)
var FXModule = fx.Module("realtime",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterRealtimeLifecycle),
)

// RealtimeParams groups the dependencies needed to create a RealtimeClient.
type RealtimeParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a RealtimeClient from injected dependencies.
func NewClientWithDI(params RealtimeParams) (*RealtimeClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client.logger = params.Logger
	}
	if params.Observer != nil {
		client.observer = params.Observer
	}
	return client, nil
}

// RegisterRealtimeLifecycle removes every channel and closes the socket on
// application stop. Nothing happens on start; the socket is opened by the
// first Subscribe.
func RegisterRealtimeLifecycle(lc fx.Lifecycle, client *RealtimeClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.RemoveAllChannels(ctx)
		},
	})
}
