package realtime

import (
	"context"
	"time"
)

const (
	// DefaultHeartbeatInterval matches the server's expectation of one
	// heartbeat every 30 seconds.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultTimeout bounds the wait for a join reply.
	DefaultTimeout = 10 * time.Second

	// DefaultReadLimit is the largest accepted frame.
	DefaultReadLimit = 1 << 20

	protocolVersion = "1.0.0"
)

// Config contains the settings for the realtime client.
type Config struct {
	// URL is the socket endpoint, e.g. wss://xyzcompany.supabase.co/realtime/v1/websocket.
	URL string

	// APIKey is sent as the apikey query parameter.
	APIKey string

	// Headers are sent with the websocket handshake.
	Headers map[string]string

	Options
}

// Options are the caller-tunable parts of Config. The supabase facade
// forwards them unchanged.
type Options struct {
	// HeartbeatInterval defaults to DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// ReadLimit defaults to DefaultReadLimit.
	ReadLimit int64

	// Params are appended to the socket URL query.
	Params map[string]string
}

// Logger is an interface that matches the v1/logger.Logger interface.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
