package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"
)

var errHeartbeatTimeout = errors.New("realtime: heartbeat not acknowledged")

func (c *RealtimeClient) makeRef() string {
	return strconv.FormatUint(c.refCounter.Add(1), 10)
}

// connect returns the open socket, dialing it on first use. The read and
// heartbeat loops run until the socket fails or disconnect is called.
func (c *RealtimeClient) connect(ctx context.Context) error {
	c.dialMu.Lock()
	defer c.dialMu.Unlock()

	c.mu.Lock()
	open := c.conn != nil
	c.mu.Unlock()
	if open {
		return nil
	}

	start := time.Now()
	conn, err := dial(ctx, c.endpoint, c.headers)
	c.observeOperation("connect", "", time.Since(start), err, 0)
	if err != nil {
		return fmt.Errorf("realtime: dial: %w", err)
	}
	conn.SetReadLimit(c.readLimit)

	loopCtx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(loopCtx)

	c.mu.Lock()
	c.conn = conn
	c.connGen++
	gen := c.connGen
	c.stop = cancel
	c.heartbeatRef = ""
	c.mu.Unlock()

	g.Go(func() error { return c.readLoop(gctx, conn) })
	g.Go(func() error { return c.heartbeatLoop(gctx, conn) })
	go func() {
		err := g.Wait()
		c.handleDisconnect(gen, conn, err)
	}()

	c.logInfo(ctx, "realtime socket connected", nil)
	return nil
}

func (c *RealtimeClient) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logWarn(ctx, "dropping malformed realtime frame", err, map[string]interface{}{"size": len(data)})
			continue
		}
		c.dispatch(ctx, msg)
	}
}

func (c *RealtimeClient) heartbeatLoop(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.heartbeatRef != "" {
			c.mu.Unlock()
			return errHeartbeatTimeout
		}
		ref := c.makeRef()
		c.heartbeatRef = ref
		c.mu.Unlock()

		err := c.write(ctx, conn, Message{
			Topic:   topicPhoenix,
			Event:   eventHeartbeat,
			Payload: json.RawMessage(`{}`),
			Ref:     &ref,
		})
		if err != nil {
			return err
		}
	}
}

func (c *RealtimeClient) handleDisconnect(gen uint64, conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.connGen != gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.pending = make(map[string]func(Message))
	channels := append([]*Channel(nil), c.channels...)
	c.mu.Unlock()

	c.logError(context.Background(), "realtime socket disconnected", cause, nil)

	err := fmt.Errorf("%w: %v", ErrConnectionLost, cause)
	for _, ch := range channels {
		ch.fail(err)
	}
	_ = conn.Close(websocket.StatusGoingAway, "")
}

// disconnect closes the socket without reporting channel errors.
func (c *RealtimeClient) disconnect() {
	c.mu.Lock()
	conn := c.conn
	stop := c.stop
	c.conn = nil
	c.stop = nil
	c.connGen++
	c.pending = make(map[string]func(Message))
	c.mu.Unlock()

	// Close waits for the peer's close frame and may be called from a
	// callback running on the read goroutine.
	if conn != nil {
		go func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
	}
	if stop != nil {
		stop()
	}
}

// Connected reports whether the socket is open.
func (c *RealtimeClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *RealtimeClient) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("realtime: encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("realtime: write %s: %w", msg.Event, err)
	}
	return nil
}

// push sends msg on the current socket. onReply, when set, receives the
// phx_reply carrying msg.Ref.
func (c *RealtimeClient) push(ctx context.Context, msg Message, onReply func(Message)) error {
	c.mu.Lock()
	conn := c.conn
	if conn != nil && onReply != nil && msg.Ref != nil {
		c.pending[*msg.Ref] = onReply
	}
	c.mu.Unlock()

	if conn == nil {
		return ErrConnectionLost
	}

	if err := c.write(ctx, conn, msg); err != nil {
		if msg.Ref != nil {
			c.forget(*msg.Ref)
		}
		return err
	}
	return nil
}

func (c *RealtimeClient) forget(ref string) {
	c.mu.Lock()
	delete(c.pending, ref)
	c.mu.Unlock()
}

func (c *RealtimeClient) dispatch(ctx context.Context, msg Message) {
	if msg.Event == eventReply && msg.Ref != nil {
		c.mu.Lock()
		if msg.Topic == topicPhoenix && *msg.Ref == c.heartbeatRef {
			c.heartbeatRef = ""
		}
		fn := c.pending[*msg.Ref]
		delete(c.pending, *msg.Ref)
		c.mu.Unlock()

		if fn != nil {
			fn(msg)
		}
		return
	}

	if msg.Topic == topicPhoenix {
		return
	}

	for _, ch := range c.Channels() {
		if ch.topic == msg.Topic {
			ch.handle(ctx, msg)
		}
	}
}

// SetAuth replaces the access token used for joins and pushes it to every
// joined channel. Joins made while the token is empty carry no
// access_token and the server authorizes them with the API key.
func (c *RealtimeClient) SetAuth(ctx context.Context, token string) error {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()

	payload, err := json.Marshal(map[string]string{"access_token": token})
	if err != nil {
		return err
	}

	var errs []error
	for _, ch := range c.Channels() {
		if ch.State() != StateJoined {
			continue
		}
		ref := c.makeRef()
		joinRef := ch.currentJoinRef()
		if err := c.push(ctx, Message{
			Topic:   ch.topic,
			Event:   eventAccessToken,
			Payload: payload,
			Ref:     &ref,
			JoinRef: &joinRef,
		}, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *RealtimeClient) currentAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// RemoveAllChannels leaves every channel, reports StatusClosed to their
// status callbacks and closes the socket. Removed channels cannot be
// subscribed again; create new ones with Channel.
func (c *RealtimeClient) RemoveAllChannels(ctx context.Context) error {
	c.mu.Lock()
	channels := c.channels
	c.channels = nil
	c.mu.Unlock()

	var errs []error
	for _, ch := range channels {
		if err := ch.leave(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	c.disconnect()
	c.logInfo(ctx, "removed all realtime channels", map[string]interface{}{"channels": len(channels)})
	return errors.Join(errs...)
}
