package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Channel is a topic on the shared socket. Listeners are registered with On
// before Subscribe; server events are delivered on the socket's read
// goroutine, so callbacks should return quickly.
type Channel struct {
	client *RealtimeClient
	name   string
	topic  string
	opts   ChannelOptions

	mu       sync.Mutex
	state    ChannelState
	bindings []*binding
	status   StatusCallback
	joinRef  string
	timer    *time.Timer
	err      error
}

type binding struct {
	typ      EventType
	filter   Filter
	callback Callback

	// id is the server-assigned postgres_changes subscription id.
	id    int64
	hasID bool
}

// Name returns the name the channel was created with.
func (ch *Channel) Name() string { return ch.name }

// Topic returns the Phoenix topic, "realtime:" + name.
func (ch *Channel) Topic() string { return ch.topic }

// State returns the current lifecycle state.
func (ch *Channel) State() ChannelState {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Err returns the first registration error, such as ErrBindAfterSubscribe.
func (ch *Channel) Err() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.err
}

// On registers callback for events of eventType matching filter and
// returns the channel for chaining. Listeners added after Subscribe are
// ignored and recorded in Err.
func (ch *Channel) On(eventType EventType, filter Filter, callback Callback) *Channel {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.state != StateCreated && ch.state != StateConfigured {
		if ch.err == nil {
			ch.err = ErrBindAfterSubscribe
		}
		ch.client.logWarn(context.Background(), "listener added after subscribe is ignored", ErrBindAfterSubscribe, map[string]interface{}{
			"topic": ch.topic,
			"type":  string(eventType),
		})
		return ch
	}

	if filter.Event == "" {
		filter.Event = "*"
	}
	ch.bindings = append(ch.bindings, &binding{typ: eventType, filter: filter, callback: callback})
	ch.state = StateConfigured
	return ch
}

// Subscribe opens the socket if needed and sends the join. It returns an
// error only for local failures; the server's answer is reported to
// statusCallback as StatusSubscribed, StatusChannelError or, when no reply
// arrives within the client timeout, StatusTimedOut.
//
// A channel in StateErrored, after a rejected or timed-out join or a lost
// socket, may be subscribed again; the socket is redialed when needed.
func (ch *Channel) Subscribe(ctx context.Context, statusCallback StatusCallback) (err error) {
	ctx, span := otel.Tracer("github.com/Aleph-Alpha/supabase-go/v1/realtime").Start(ctx, "realtime.subscribe",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("realtime.topic", ch.topic)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ch.mu.Lock()
	switch ch.state {
	case StateCreated, StateConfigured:
	case StateErrored:
		for _, b := range ch.bindings {
			b.id, b.hasID = 0, false
		}
	case StateClosed:
		ch.mu.Unlock()
		return ErrChannelClosed
	default:
		ch.mu.Unlock()
		return ErrAlreadySubscribed
	}
	prev := ch.state
	ch.state = StateJoining
	ch.status = statusCallback
	payload, err := ch.joinPayload()
	ch.mu.Unlock()

	if err == nil {
		err = ch.client.connect(ctx)
	}
	if err != nil {
		ch.restore(prev)
		return err
	}

	ref := ch.client.makeRef()
	start := time.Now()

	ch.mu.Lock()
	ch.joinRef = ref
	ch.timer = time.AfterFunc(ch.client.timeout, func() { ch.joinTimedOut(ref, start) })
	ch.mu.Unlock()

	err = ch.client.push(ctx, Message{
		Topic:   ch.topic,
		Event:   eventJoin,
		Payload: payload,
		Ref:     &ref,
		JoinRef: &ref,
	}, func(msg Message) { ch.joinReplied(msg, ref, start) })
	if err != nil {
		ch.restore(prev)
		return err
	}

	ch.client.logInfo(ctx, "joining realtime channel", map[string]interface{}{"topic": ch.topic})
	return nil
}

// joinPayload must be called with ch.mu held.
func (ch *Channel) joinPayload() (json.RawMessage, error) {
	var jc joinConfig
	jc.Config.Broadcast.Self = ch.opts.BroadcastSelf
	jc.Config.Broadcast.Ack = ch.opts.BroadcastAck
	jc.Config.Presence.Key = ch.opts.PresenceKey
	jc.Config.Private = ch.opts.Private
	jc.Config.PostgresChanges = []Filter{}
	for _, b := range ch.bindings {
		if b.typ == EventPostgresChanges {
			jc.Config.PostgresChanges = append(jc.Config.PostgresChanges, b.filter)
		}
	}
	jc.AccessToken = ch.client.currentAccessToken()

	data, err := json.Marshal(jc)
	if err != nil {
		return nil, fmt.Errorf("realtime: encode join: %w", err)
	}
	return data, nil
}

func (ch *Channel) restore(state ChannelState) {
	ch.mu.Lock()
	if ch.state == StateJoining {
		ch.state = state
	}
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}
	ch.mu.Unlock()
}

func (ch *Channel) currentJoinRef() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.joinRef
}

func (ch *Channel) joinReplied(msg Message, ref string, start time.Time) {
	var reply replyPayload
	_ = json.Unmarshal(msg.Payload, &reply)
	var resp joinResponse
	if len(reply.Response) > 0 {
		_ = json.Unmarshal(reply.Response, &resp)
	}

	ch.mu.Lock()
	if ch.state != StateJoining || ch.joinRef != ref {
		ch.mu.Unlock()
		return
	}
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}

	var err error
	if reply.Status != "ok" {
		reason := resp.Reason
		if reason == "" {
			reason = reply.Status
		}
		err = &JoinError{Topic: ch.topic, Reason: reason}
	} else {
		err = ch.assignIDs(resp)
	}

	status := StatusSubscribed
	if err != nil {
		ch.state = StateErrored
		status = StatusChannelError
	} else {
		ch.state = StateJoined
	}
	cb := ch.status
	ch.mu.Unlock()

	ch.client.observeOperation("subscribe", ch.topic, time.Since(start), err, 0)
	if err != nil {
		ch.client.logWarn(context.Background(), "realtime join failed", err, map[string]interface{}{"topic": ch.topic})
	}
	if cb != nil {
		cb(status, err)
	}
}

// assignIDs pairs the server's postgres_changes ids with the requested
// bindings in order. Must be called with ch.mu held.
func (ch *Channel) assignIDs(resp joinResponse) error {
	i := 0
	for _, b := range ch.bindings {
		if b.typ != EventPostgresChanges {
			continue
		}
		if i >= len(resp.PostgresChanges) {
			return ErrBindingMismatch
		}
		server := resp.PostgresChanges[i]
		i++
		if !strings.EqualFold(server.Event, b.filter.Event) ||
			server.Schema != b.filter.Schema ||
			server.Table != b.filter.Table ||
			server.Filter.Filter != b.filter.Filter {
			return ErrBindingMismatch
		}
		b.id = server.ID
		b.hasID = true
	}
	return nil
}

func (ch *Channel) joinTimedOut(ref string, start time.Time) {
	ch.mu.Lock()
	if ch.state != StateJoining || ch.joinRef != ref {
		ch.mu.Unlock()
		return
	}
	ch.state = StateErrored
	ch.timer = nil
	cb := ch.status
	ch.mu.Unlock()

	ch.client.forget(ref)
	ch.client.observeOperation("subscribe", ch.topic, time.Since(start), ErrSubscribeTimeout, 0)
	ch.client.logWarn(context.Background(), "realtime join timed out", ErrSubscribeTimeout, map[string]interface{}{"topic": ch.topic})
	if cb != nil {
		cb(StatusTimedOut, ErrSubscribeTimeout)
	}
}

// fail moves an active channel to errored and reports err.
func (ch *Channel) fail(err error) {
	ch.mu.Lock()
	if ch.state != StateJoining && ch.state != StateJoined {
		ch.mu.Unlock()
		return
	}
	ch.state = StateErrored
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}
	cb := ch.status
	ch.mu.Unlock()

	if cb != nil {
		cb(StatusChannelError, err)
	}
}

func (ch *Channel) leave(ctx context.Context) error {
	ch.mu.Lock()
	prev := ch.state
	ch.state = StateClosed
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}
	cb := ch.status
	joinRef := ch.joinRef
	ch.mu.Unlock()

	if prev == StateClosed {
		return nil
	}

	var err error
	if prev == StateJoining || prev == StateJoined {
		ref := ch.client.makeRef()
		err = ch.client.push(ctx, Message{
			Topic:   ch.topic,
			Event:   eventLeave,
			Payload: json.RawMessage(`{}`),
			Ref:     &ref,
			JoinRef: &joinRef,
		}, nil)
	}
	if cb != nil {
		cb(StatusClosed, nil)
	}
	return err
}

// Send broadcasts msg to the channel's other subscribers.
func (ch *Channel) Send(ctx context.Context, msg BroadcastMessage) error {
	ch.mu.Lock()
	state := ch.state
	joinRef := ch.joinRef
	ch.mu.Unlock()

	switch state {
	case StateJoined:
	case StateClosed:
		return ErrChannelClosed
	default:
		return ErrNotJoined
	}

	inner, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("realtime: encode broadcast payload: %w", err)
	}
	payload, err := json.Marshal(broadcastPayload{Type: "broadcast", Event: msg.Event, Payload: inner})
	if err != nil {
		return fmt.Errorf("realtime: encode broadcast: %w", err)
	}

	start := time.Now()
	ref := ch.client.makeRef()
	err = ch.client.push(ctx, Message{
		Topic:   ch.topic,
		Event:   eventBroadcast,
		Payload: payload,
		Ref:     &ref,
		JoinRef: &joinRef,
	}, nil)
	ch.client.observeOperation("send", ch.topic, time.Since(start), err, int64(len(payload)))
	return err
}

// handle routes a server message addressed to this channel.
func (ch *Channel) handle(ctx context.Context, msg Message) {
	switch msg.Event {
	case eventPostgresChanges:
		var p postgresChangesPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			ch.client.logWarn(ctx, "malformed postgres_changes payload", err, map[string]interface{}{"topic": ch.topic})
			return
		}
		ch.deliver(msg.Payload, func(b *binding) bool {
			return b.typ == EventPostgresChanges && matchesChange(b, p)
		})

	case eventBroadcast:
		var p broadcastPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			ch.client.logWarn(ctx, "malformed broadcast payload", err, map[string]interface{}{"topic": ch.topic})
			return
		}
		ch.deliver(msg.Payload, func(b *binding) bool {
			return b.typ == EventBroadcast && (b.filter.Event == "*" || b.filter.Event == p.Event)
		})

	case eventPresenceState:
		ch.deliver(msg.Payload, presenceMatcher("sync"))

	case eventPresenceDiff:
		var p presenceDiffPayload
		_ = json.Unmarshal(msg.Payload, &p)
		if len(p.Joins) > 0 {
			ch.deliver(msg.Payload, presenceMatcher("join"))
		}
		if len(p.Leaves) > 0 {
			ch.deliver(msg.Payload, presenceMatcher("leave"))
		}
		ch.deliver(msg.Payload, presenceMatcher("sync"))

	case eventError:
		ch.fail(fmt.Errorf("realtime: channel %s errored: %s", ch.topic, string(msg.Payload)))

	case eventClose:
		ch.mu.Lock()
		wasOpen := ch.state != StateClosed
		ch.state = StateClosed
		cb := ch.status
		ch.mu.Unlock()
		if wasOpen && cb != nil {
			cb(StatusClosed, nil)
		}

	case eventSystem:
		ch.client.logInfo(ctx, "realtime system message", map[string]interface{}{
			"topic":   ch.topic,
			"payload": string(msg.Payload),
		})
	}
}

func presenceMatcher(event string) func(*binding) bool {
	return func(b *binding) bool {
		return b.typ == EventPresence && (b.filter.Event == "*" || b.filter.Event == event)
	}
}

// matchesChange prefers the server-assigned ids and falls back to
// comparing the change against the binding's filter.
func matchesChange(b *binding, p postgresChangesPayload) bool {
	if len(p.IDs) > 0 && b.hasID {
		for _, id := range p.IDs {
			if id == b.id {
				return true
			}
		}
		return false
	}

	f := b.filter
	if f.Event != "*" && !strings.EqualFold(f.Event, p.Data.Type) {
		return false
	}
	if f.Schema != "" && f.Schema != "*" && f.Schema != p.Data.Schema {
		return false
	}
	if f.Table != "" && f.Table != "*" && f.Table != p.Data.Table {
		return false
	}
	return true
}

func (ch *Channel) deliver(payload json.RawMessage, match func(*binding) bool) {
	ch.mu.Lock()
	if ch.state != StateJoined {
		ch.mu.Unlock()
		return
	}
	var callbacks []Callback
	for _, b := range ch.bindings {
		if match(b) {
			callbacks = append(callbacks, b.callback)
		}
	}
	ch.mu.Unlock()

	for _, cb := range callbacks {
		cb(payload)
	}
}
