package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/supabase-go/v1/logger"
)

// FXModule provides *Tracer and flushes it when the application stops.
//
// Dependencies required by this module:
// - A tracer.Config instance
// - A *logger.Logger instance
var FXModule = fx.Module("tracer",
	fx.Provide(
		func(cfg Config, log *logger.Logger) *Tracer {
			return NewClient(cfg, log)
		},
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle shuts the tracer provider down on application stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("shutting down tracer...", nil, nil)
			return tracer.Shutdown(ctx)
		},
	})
}
