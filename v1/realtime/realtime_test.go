package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
	"github.com/Aleph-Alpha/supabase-go/v1/realtime/realtimetest"
)

const waitTimeout = 2 * time.Second

type statusEvent struct {
	status Status
	err    error
}

type statusRecorder struct {
	events chan statusEvent
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{events: make(chan statusEvent, 16)}
}

func (r *statusRecorder) callback(status Status, err error) {
	r.events <- statusEvent{status: status, err: err}
}

func (r *statusRecorder) wait(t *testing.T) statusEvent {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for channel status")
		return statusEvent{}
	}
}

type payloadRecorder struct {
	mu       sync.Mutex
	payloads []json.RawMessage
}

func (p *payloadRecorder) callback(payload json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
}

func (p *payloadRecorder) get() []json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]json.RawMessage(nil), p.payloads...)
}

type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]observability.OperationContext(nil), t.operations...)
}

func newTestClient(t *testing.T, ts *realtimetest.TestServer, opts ...Options) *RealtimeClient {
	t.Helper()
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	c, err := NewClient(Config{URL: ts.WebSocketURL(), APIKey: "anon-key", Options: o})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.RemoveAllChannels(context.Background()) })
	return c
}

func subscribed(t *testing.T, ch *Channel) *statusRecorder {
	t.Helper()
	rec := newStatusRecorder()
	require.NoError(t, ch.Subscribe(context.Background(), rec.callback))
	ev := rec.wait(t)
	require.Equal(t, StatusSubscribed, ev.status, "err: %v", ev.err)
	return rec
}

func TestNewClientEndpoint(t *testing.T) {
	c, err := NewClient(Config{
		URL:     "https://xyz.supabase.co/realtime/v1/websocket",
		APIKey:  "anon-key",
		Options: Options{Params: map[string]string{"log_level": "info"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "wss://xyz.supabase.co/realtime/v1/websocket?apikey=anon-key&log_level=info&vsn=1.0.0", c.Endpoint())
	assert.False(t, c.Connected())

	c, err = NewClient(Config{URL: "http://localhost:54321/realtime/v1/websocket", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:54321/realtime/v1/websocket?apikey=k&vsn=1.0.0", c.Endpoint())

	_, err = NewClient(Config{URL: "ftp://localhost/realtime"})
	assert.Error(t, err)
	_, err = NewClient(Config{})
	assert.Error(t, err)
}

func TestChannelTopic(t *testing.T) {
	c, err := NewClient(Config{URL: "ws://localhost/realtime/v1/websocket"})
	require.NoError(t, err)

	ch := c.Channel("room-1")
	assert.Equal(t, "room-1", ch.Name())
	assert.Equal(t, "realtime:room-1", ch.Topic())
	assert.Equal(t, StateCreated, ch.State())
	assert.Len(t, c.Channels(), 1)
}

func TestSubscribeSendsJoin(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	ch := c.Channel("room-1", ChannelOptions{BroadcastSelf: true, PresenceKey: "user-1"}).
		On(EventPostgresChanges, Filter{Event: "INSERT", Schema: "public", Table: "messages"}, func(json.RawMessage) {})
	assert.Equal(t, StateConfigured, ch.State())

	subscribed(t, ch)
	assert.Equal(t, StateJoined, ch.State())
	assert.True(t, c.Connected())

	q := ts.LastQuery()
	assert.Equal(t, "anon-key", q.Get("apikey"))
	assert.Equal(t, "1.0.0", q.Get("vsn"))

	join, ok := ts.WaitFor("realtime:room-1", "phx_join", waitTimeout)
	require.True(t, ok)
	require.NotNil(t, join.Ref)
	require.NotNil(t, join.JoinRef)
	assert.Equal(t, *join.Ref, *join.JoinRef)
	assert.JSONEq(t, `{
		"config": {
			"broadcast": {"self": true, "ack": false},
			"presence": {"key": "user-1"},
			"postgres_changes": [{"event": "INSERT", "schema": "public", "table": "messages"}],
			"private": false
		}
	}`, string(join.Payload))
}

func TestPostgresChangeDeliveredUnmodified(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	messages := &payloadRecorder{}
	profiles := &payloadRecorder{}
	ch := c.Channel("db").
		On(EventPostgresChanges, Filter{Event: "INSERT", Schema: "public", Table: "messages"}, messages.callback).
		On(EventPostgresChanges, Filter{Event: "*", Schema: "public", Table: "profiles"}, profiles.callback)
	subscribed(t, ch)

	payload := map[string]interface{}{
		"ids": []int64{1},
		"data": map[string]interface{}{
			"type":   "INSERT",
			"schema": "public",
			"table":  "messages",
			"record": map[string]interface{}{"id": 7, "text": "hello"},
		},
	}
	require.NoError(t, ts.Push("realtime:db", "postgres_changes", payload))

	require.Eventually(t, func() bool { return len(messages.get()) == 1 }, waitTimeout, 5*time.Millisecond)
	want, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(messages.get()[0]))
	assert.Empty(t, profiles.get())
}

func TestPostgresChangeFallsBackToFilterMatch(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	updates := &payloadRecorder{}
	ch := c.Channel("db").
		On(EventPostgresChanges, Filter{Event: "UPDATE", Schema: "public", Table: "messages"}, updates.callback)
	subscribed(t, ch)

	require.NoError(t, ts.Push("realtime:db", "postgres_changes", map[string]interface{}{
		"data": map[string]interface{}{"type": "INSERT", "schema": "public", "table": "messages"},
	}))
	require.NoError(t, ts.Push("realtime:db", "postgres_changes", map[string]interface{}{
		"data": map[string]interface{}{"type": "UPDATE", "schema": "public", "table": "messages"},
	}))

	require.Eventually(t, func() bool { return len(updates.get()) == 1 }, waitTimeout, 5*time.Millisecond)
	assert.Contains(t, string(updates.get()[0]), `"UPDATE"`)
}

func TestBroadcastMatchesEvent(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	cursor := &payloadRecorder{}
	all := &payloadRecorder{}
	ch := c.Channel("room").
		On(EventBroadcast, Filter{Event: "cursor"}, cursor.callback).
		On(EventBroadcast, Filter{}, all.callback)
	subscribed(t, ch)

	require.NoError(t, ts.Push("realtime:room", "broadcast", map[string]interface{}{
		"type": "broadcast", "event": "typing", "payload": map[string]interface{}{"user": "ada"},
	}))
	require.NoError(t, ts.Push("realtime:room", "broadcast", map[string]interface{}{
		"type": "broadcast", "event": "cursor", "payload": map[string]interface{}{"x": 1},
	}))

	require.Eventually(t, func() bool { return len(all.get()) == 2 }, waitTimeout, 5*time.Millisecond)
	require.Len(t, cursor.get(), 1)
	assert.JSONEq(t, `{"type":"broadcast","event":"cursor","payload":{"x":1}}`, string(cursor.get()[0]))
}

func TestPresenceEvents(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	synced := &payloadRecorder{}
	joins := &payloadRecorder{}
	leaves := &payloadRecorder{}
	ch := c.Channel("lobby").
		On(EventPresence, Filter{Event: "sync"}, synced.callback).
		On(EventPresence, Filter{Event: "join"}, joins.callback).
		On(EventPresence, Filter{Event: "leave"}, leaves.callback)
	subscribed(t, ch)

	require.NoError(t, ts.Push("realtime:lobby", "presence_state", map[string]interface{}{}))
	require.NoError(t, ts.Push("realtime:lobby", "presence_diff", map[string]interface{}{
		"joins":  map[string]interface{}{"user-1": map[string]interface{}{"metas": []interface{}{}}},
		"leaves": map[string]interface{}{},
	}))

	require.Eventually(t, func() bool { return len(synced.get()) == 2 }, waitTimeout, 5*time.Millisecond)
	assert.Len(t, joins.get(), 1)
	assert.Empty(t, leaves.get())
}

func TestJoinRejected(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	ts.SetJoinHandler(func(string, json.RawMessage) (string, interface{}, bool) {
		return "error", map[string]string{"reason": "unauthorized"}, true
	})
	c := newTestClient(t, ts)

	ch := c.Channel("private")
	rec := newStatusRecorder()
	require.NoError(t, ch.Subscribe(context.Background(), rec.callback))

	ev := rec.wait(t)
	assert.Equal(t, StatusChannelError, ev.status)
	var joinErr *JoinError
	require.ErrorAs(t, ev.err, &joinErr)
	assert.Equal(t, "unauthorized", joinErr.Reason)
	assert.Equal(t, "realtime:private", joinErr.Topic)
	assert.Equal(t, StateErrored, ch.State())
}

func TestJoinTimesOut(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	ts.SetJoinHandler(func(string, json.RawMessage) (string, interface{}, bool) {
		return "", nil, false
	})
	c := newTestClient(t, ts, Options{Timeout: 50 * time.Millisecond})

	ch := c.Channel("slow")
	rec := newStatusRecorder()
	require.NoError(t, ch.Subscribe(context.Background(), rec.callback))

	ev := rec.wait(t)
	assert.Equal(t, StatusTimedOut, ev.status)
	assert.ErrorIs(t, ev.err, ErrSubscribeTimeout)
	assert.Equal(t, StateErrored, ch.State())
}

func TestBindingMismatch(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	ts.SetJoinHandler(func(string, json.RawMessage) (string, interface{}, bool) {
		return "ok", map[string]interface{}{"postgres_changes": []interface{}{}}, true
	})
	c := newTestClient(t, ts)

	ch := c.Channel("db").On(EventPostgresChanges, Filter{Event: "*", Schema: "public"}, func(json.RawMessage) {})
	rec := newStatusRecorder()
	require.NoError(t, ch.Subscribe(context.Background(), rec.callback))

	ev := rec.wait(t)
	assert.Equal(t, StatusChannelError, ev.status)
	assert.ErrorIs(t, ev.err, ErrBindingMismatch)
}

func TestOnAfterSubscribeIsRejected(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	early := &payloadRecorder{}
	late := &payloadRecorder{}
	ch := c.Channel("room").On(EventBroadcast, Filter{Event: "ping"}, early.callback)
	subscribed(t, ch)

	ch.On(EventBroadcast, Filter{Event: "ping"}, late.callback)
	assert.ErrorIs(t, ch.Err(), ErrBindAfterSubscribe)

	require.NoError(t, ts.Push("realtime:room", "broadcast", map[string]interface{}{"type": "broadcast", "event": "ping"}))
	require.Eventually(t, func() bool { return len(early.get()) == 1 }, waitTimeout, 5*time.Millisecond)
	assert.Empty(t, late.get())
}

func TestSubscribeTwice(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	ch := c.Channel("room")
	subscribed(t, ch)
	assert.ErrorIs(t, ch.Subscribe(context.Background(), nil), ErrAlreadySubscribed)
}

func TestSubscribeDialFailure(t *testing.T) {
	ts := realtimetest.NewServer()
	url := ts.WebSocketURL()
	ts.Close()

	c, err := NewClient(Config{URL: url, APIKey: "k", Options: Options{Timeout: time.Second}})
	require.NoError(t, err)

	obs := &TestObserver{}
	c.WithObserver(obs)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := c.Channel("room").On(EventBroadcast, Filter{}, func(json.RawMessage) {})
	err = ch.Subscribe(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, StateConfigured, ch.State())

	ops := obs.GetOperations()
	require.Len(t, ops, 1)
	assert.Equal(t, "connect", ops[0].Operation)
	assert.Error(t, ops[0].Error)
}

func TestSend(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	ch := c.Channel("room")
	assert.ErrorIs(t, ch.Send(context.Background(), BroadcastMessage{Event: "ping"}), ErrNotJoined)

	subscribed(t, ch)
	require.NoError(t, ch.Send(context.Background(), BroadcastMessage{
		Event:   "cursor",
		Payload: map[string]int{"x": 3},
	}))

	f, ok := ts.WaitFor("realtime:room", "broadcast", waitTimeout)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"broadcast","event":"cursor","payload":{"x":3}}`, string(f.Payload))
}

func TestSetAuth(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	ch := c.Channel("room")
	subscribed(t, ch)

	require.NoError(t, c.SetAuth(context.Background(), "user-jwt"))
	f, ok := ts.WaitFor("realtime:room", "access_token", waitTimeout)
	require.True(t, ok)
	assert.JSONEq(t, `{"access_token":"user-jwt"}`, string(f.Payload))

	subscribed(t, c.Channel("second"))
	join, ok := ts.WaitFor("realtime:second", "phx_join", waitTimeout)
	require.True(t, ok)

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(join.Payload, &payload))
	assert.Equal(t, "user-jwt", payload.AccessToken)
	assert.Equal(t, 1, ts.Connections())
}

func TestRemoveAllChannels(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	ch := c.Channel("room")
	rec := subscribed(t, ch)

	require.NoError(t, c.RemoveAllChannels(context.Background()))

	ev := rec.wait(t)
	assert.Equal(t, StatusClosed, ev.status)
	assert.NoError(t, ev.err)
	assert.Equal(t, StateClosed, ch.State())
	assert.Empty(t, c.Channels())
	assert.False(t, c.Connected())

	_, ok := ts.WaitFor("realtime:room", "phx_leave", waitTimeout)
	assert.True(t, ok)

	assert.ErrorIs(t, ch.Subscribe(context.Background(), nil), ErrChannelClosed)
	assert.True(t, IsClosed(ch.Send(context.Background(), BroadcastMessage{Event: "x"})))
}

func TestRemoveAllChannelsFromCallback(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	done := make(chan error, 1)
	ch := c.Channel("room").On(EventBroadcast, Filter{Event: "stop"}, func(json.RawMessage) {
		done <- c.RemoveAllChannels(context.Background())
	})
	subscribed(t, ch)

	require.NoError(t, ts.Push("realtime:room", "broadcast", map[string]interface{}{"type": "broadcast", "event": "stop"}))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("RemoveAllChannels did not return")
	}
	assert.Equal(t, StateClosed, ch.State())
}

func TestHeartbeatSent(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts, Options{HeartbeatInterval: 20 * time.Millisecond})

	subscribed(t, c.Channel("room"))

	f, ok := ts.WaitFor("phoenix", "heartbeat", waitTimeout)
	require.True(t, ok)
	assert.NotNil(t, f.Ref)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, c.Connected())
}

func TestMissedHeartbeatReportsChannelError(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	ts.IgnoreHeartbeats(true)
	c := newTestClient(t, ts, Options{HeartbeatInterval: 30 * time.Millisecond})

	ch := c.Channel("room")
	rec := subscribed(t, ch)

	ev := rec.wait(t)
	assert.Equal(t, StatusChannelError, ev.status)
	assert.ErrorIs(t, ev.err, ErrConnectionLost)
	assert.Equal(t, StateErrored, ch.State())
	assert.False(t, c.Connected())
}

func TestServerDropReportsChannelError(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	ch := c.Channel("room")
	rec := subscribed(t, ch)

	ts.CloseConnections()

	ev := rec.wait(t)
	assert.Equal(t, StatusChannelError, ev.status)
	assert.True(t, errors.Is(ev.err, ErrConnectionLost))
}

func TestResubscribeAfterServerDrop(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)

	got := &payloadRecorder{}
	ch := c.Channel("room").On(EventBroadcast, Filter{Event: "ping"}, got.callback)
	rec := subscribed(t, ch)

	ts.CloseConnections()
	ev := rec.wait(t)
	require.Equal(t, StatusChannelError, ev.status)
	require.Equal(t, StateErrored, ch.State())

	subscribed(t, ch)
	assert.Equal(t, StateJoined, ch.State())
	assert.Equal(t, 2, ts.Connections())
	assert.Len(t, c.Channels(), 1)

	require.NoError(t, ts.Push("realtime:room", "broadcast", map[string]interface{}{"type": "broadcast", "event": "ping"}))
	require.Eventually(t, func() bool { return len(got.get()) == 1 }, waitTimeout, 5*time.Millisecond)
}

func TestResubscribeAfterRejectedJoin(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	var mu sync.Mutex
	reject := true
	ts.SetJoinHandler(func(string, json.RawMessage) (string, interface{}, bool) {
		mu.Lock()
		defer mu.Unlock()
		if reject {
			reject = false
			return "error", map[string]string{"reason": "unauthorized"}, true
		}
		return "ok", map[string]interface{}{}, true
	})
	c := newTestClient(t, ts)

	ch := c.Channel("private")
	rec := newStatusRecorder()
	require.NoError(t, ch.Subscribe(context.Background(), rec.callback))
	require.Equal(t, StatusChannelError, rec.wait(t).status)

	subscribed(t, ch)
	assert.Equal(t, 1, ts.Connections())
	assert.ErrorIs(t, ch.Subscribe(context.Background(), nil), ErrAlreadySubscribed)
}

func TestObserverSeesSubscribeAndSend(t *testing.T) {
	ts := realtimetest.NewServer()
	defer ts.Close()
	c := newTestClient(t, ts)
	obs := &TestObserver{}
	c.WithObserver(obs)

	ch := c.Channel("room")
	subscribed(t, ch)
	require.NoError(t, ch.Send(context.Background(), BroadcastMessage{Event: "e", Payload: "hi"}))

	ops := obs.GetOperations()
	require.Len(t, ops, 3)
	assert.Equal(t, "connect", ops[0].Operation)
	assert.Equal(t, "subscribe", ops[1].Operation)
	assert.Equal(t, "realtime:room", ops[1].Resource)
	assert.NoError(t, ops[1].Error)
	assert.Equal(t, "send", ops[2].Operation)
	assert.Greater(t, ops[2].Size, int64(0))
	for _, op := range ops {
		assert.Equal(t, "realtime", op.Component)
	}
}
