package storage

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// FXModule provides *StorageClient and the Storage interface.
var FXModule = fx.Module("storage",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(s *StorageClient) Storage { return s },
			fx.As(new(Storage)),
		),
	),
)

// StorageParams groups the dependencies needed to create a StorageClient.
type StorageParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a StorageClient from injected dependencies.
func NewClientWithDI(params StorageParams) (*StorageClient, error) {
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
