package realtime

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// RealtimeClient owns the socket to the Realtime server and the channels
// multiplexed over it. The socket is opened by the first Subscribe.
type RealtimeClient struct {
	endpoint  string
	headers   map[string]string
	heartbeat time.Duration
	timeout   time.Duration
	readLimit int64

	logger   Logger
	observer observability.Observer

	dialMu sync.Mutex

	mu           sync.Mutex
	conn         *websocket.Conn
	connGen      uint64
	stop         context.CancelFunc
	channels     []*Channel
	pending      map[string]func(Message)
	accessToken  string
	heartbeatRef string

	refCounter atomic.Uint64
}

// NewClient creates a RealtimeClient. No connection is made.
func NewClient(cfg Config) (*RealtimeClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("realtime: url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("realtime: invalid url %q: %w", cfg.URL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("realtime: unsupported url scheme %q", u.Scheme)
	}

	q := u.Query()
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	q.Set("apikey", cfg.APIKey)
	q.Set("vsn", protocolVersion)
	u.RawQuery = q.Encode()

	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	readLimit := cfg.ReadLimit
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}

	return &RealtimeClient{
		endpoint:  u.String(),
		headers:   cfg.Headers,
		heartbeat: heartbeat,
		timeout:   timeout,
		readLimit: readLimit,
		pending:   make(map[string]func(Message)),
	}, nil
}

// WithObserver sets the observer for this client and returns the client for method chaining.
func (c *RealtimeClient) WithObserver(observer observability.Observer) *RealtimeClient {
	c.observer = observer
	return c
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (c *RealtimeClient) WithLogger(logger Logger) *RealtimeClient {
	c.logger = logger
	return c
}

// Endpoint returns the socket URL including the apikey and vsn parameters.
func (c *RealtimeClient) Endpoint() string {
	return c.endpoint
}

// Channel creates a channel for name. The topic sent to the server is
// "realtime:" + name. Nothing is sent until Subscribe.
func (c *RealtimeClient) Channel(name string, opts ...ChannelOptions) *Channel {
	var o ChannelOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	ch := &Channel{
		client: c,
		name:   name,
		topic:  topicPrefix + name,
		opts:   o,
		state:  StateCreated,
	}

	c.mu.Lock()
	c.channels = append(c.channels, ch)
	c.mu.Unlock()
	return ch
}

// Channels returns the channels that have not been removed.
func (c *RealtimeClient) Channels() []*Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Channel(nil), c.channels...)
}
