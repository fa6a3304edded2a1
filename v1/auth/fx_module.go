package auth

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// FXModule provides *AuthClient and the Auth interface.
//
// Dependencies required by this module:
// - An auth.Config instance
// - Optionally a Logger and an observability.Observer
var FXModule = fx.Module("auth",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(a *AuthClient) Auth { return a },
			fx.As(new(Auth)),
		),
	),
)

// AuthParams groups the dependencies for NewClientWithDI.
type AuthParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates an AuthClient from injected dependencies.
func NewClientWithDI(params AuthParams) (*AuthClient, error) {
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
