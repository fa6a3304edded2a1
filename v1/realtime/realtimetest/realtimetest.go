// Package realtimetest provides an in-process Phoenix socket that speaks
// enough of the Realtime protocol to test clients against.
package realtimetest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is a Phoenix message as seen on the wire.
type Frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

// JoinHandler decides the reply to a phx_join. Returning reply=false
// leaves the join unanswered.
type JoinHandler func(topic string, payload json.RawMessage) (status string, response interface{}, reply bool)

type TestServer struct {
	*httptest.Server

	mu        sync.Mutex
	conns     []*serverConn
	accepted  int
	received  []Frame
	lastQuery url.Values
	nextID    int64

	joinHandler      JoinHandler
	ignoreHeartbeats bool
}

type serverConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *serverConn) write(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(f)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func NewServer() *TestServer {
	return NewServerWithHandler(nil)
}

// NewServerWithHandler serves the socket at /realtime/v1/websocket and hands
// every other path to fallback, so one server can stand in for a whole
// project.
func NewServerWithHandler(fallback http.Handler) *TestServer {
	ts := &TestServer{}

	smux := http.NewServeMux()
	smux.HandleFunc("/realtime/v1/websocket", ts.handleWS)
	if fallback != nil {
		smux.Handle("/", fallback)
	}

	ts.Server = httptest.NewServer(smux)
	return ts
}

// WebSocketURL returns the socket endpoint without query parameters.
func (ts *TestServer) WebSocketURL() string {
	u, err := url.Parse(ts.URL)
	if err != nil {
		panic(err)
	}
	u.Scheme = "ws"
	u.Path = "/realtime/v1/websocket"
	return u.String()
}

// SetJoinHandler replaces the default join handling, which acknowledges
// every join and assigns sequential ids to its postgres_changes bindings.
func (ts *TestServer) SetJoinHandler(h JoinHandler) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.joinHandler = h
}

// IgnoreHeartbeats stops the server from answering heartbeats.
func (ts *TestServer) IgnoreHeartbeats(ignore bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.ignoreHeartbeats = ignore
}

// LastQuery returns the query of the most recent socket handshake.
func (ts *TestServer) LastQuery() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastQuery
}

// Received returns every frame read from clients so far.
func (ts *TestServer) Received() []Frame {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]Frame(nil), ts.received...)
}

// Connections returns the number of sockets accepted so far.
func (ts *TestServer) Connections() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.accepted
}

// WaitFor returns the first received frame with the given topic and event.
func (ts *TestServer) WaitFor(topic, event string, timeout time.Duration) (Frame, bool) {
	deadline := time.Now().Add(timeout)
	for {
		for _, f := range ts.Received() {
			if f.Topic == topic && f.Event == event {
				return f, true
			}
		}
		if time.Now().After(deadline) {
			return Frame{}, false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Push sends a server event to every open client socket.
func (ts *TestServer) Push(topic, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ts.mu.Lock()
	conns := append([]*serverConn(nil), ts.conns...)
	ts.mu.Unlock()
	if len(conns) == 0 {
		return errors.New("realtimetest: no connected clients")
	}

	var sent int
	var lastErr error
	for _, c := range conns {
		// a socket the client just dropped may not be reaped yet
		if err := c.write(Frame{Topic: topic, Event: event, Payload: data}); err != nil {
			lastErr = err
			continue
		}
		sent++
	}
	if sent == 0 {
		return lastErr
	}
	return nil
}

// CloseConnections drops every client socket without a close handshake.
func (ts *TestServer) CloseConnections() {
	ts.mu.Lock()
	conns := append([]*serverConn(nil), ts.conns...)
	ts.mu.Unlock()
	for _, c := range conns {
		c.ws.Close()
	}
}

func (ts *TestServer) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &serverConn{ws: ws}

	ts.mu.Lock()
	ts.lastQuery = r.URL.Query()
	ts.conns = append(ts.conns, c)
	ts.accepted++
	ts.mu.Unlock()

	defer ts.drop(c)
	for {
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			return
		}

		ts.mu.Lock()
		ts.received = append(ts.received, f)
		ts.mu.Unlock()

		switch f.Event {
		case "heartbeat":
			ts.mu.Lock()
			ignore := ts.ignoreHeartbeats
			ts.mu.Unlock()
			if !ignore {
				c.write(reply(f, "ok", map[string]interface{}{}))
			}
		case "phx_join":
			ts.handleJoin(c, f)
		case "phx_leave":
			c.write(reply(f, "ok", map[string]interface{}{}))
		}
	}
}

func (ts *TestServer) drop(c *serverConn) {
	ts.mu.Lock()
	for i, open := range ts.conns {
		if open == c {
			ts.conns = append(ts.conns[:i], ts.conns[i+1:]...)
			break
		}
	}
	ts.mu.Unlock()
	c.ws.Close()
}

func (ts *TestServer) handleJoin(c *serverConn, f Frame) {
	ts.mu.Lock()
	h := ts.joinHandler
	ts.mu.Unlock()

	if h != nil {
		status, response, ok := h(f.Topic, f.Payload)
		if ok {
			c.write(reply(f, status, response))
		}
		return
	}

	var join struct {
		Config struct {
			PostgresChanges []map[string]interface{} `json:"postgres_changes"`
		} `json:"config"`
	}
	json.Unmarshal(f.Payload, &join)

	changes := make([]map[string]interface{}, 0, len(join.Config.PostgresChanges))
	ts.mu.Lock()
	for _, pc := range join.Config.PostgresChanges {
		ts.nextID++
		pc["id"] = ts.nextID
		changes = append(changes, pc)
	}
	ts.mu.Unlock()

	c.write(reply(f, "ok", map[string]interface{}{"postgres_changes": changes}))
}

func reply(f Frame, status string, response interface{}) Frame {
	data, _ := json.Marshal(map[string]interface{}{
		"status":   status,
		"response": response,
	})
	return Frame{
		Topic:   f.Topic,
		Event:   "phx_reply",
		Payload: data,
		Ref:     f.Ref,
		JoinRef: f.JoinRef,
	}
}
