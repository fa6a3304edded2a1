// Package logger provides the zap-backed structured logger used across this module.
//
// Every client package (auth, postgrest, realtime, storage) declares its own
// small Logger interface with the *WithContext methods; *Logger satisfies all of
// them, so the usual wiring is:
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		EnableTracing: true,
//		ServiceName:   "guestbook",
//	})
//
//	client, err := supabase.NewClient(cfg, supabase.WithLogger(log))
//
// Log calls take a message, an optional error and optional field maps:
//
//	log.Info("User signed in", nil, map[string]interface{}{"user_id": user.ID})
//	log.ErrorWithContext(ctx, "Query failed", err, map[string]interface{}{"table": "messages"})
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	LOGGER_ENABLE_TRACING=true      # add trace_id/span_id from the context's span
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
