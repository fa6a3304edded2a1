package realtime

import (
	"encoding/json"
)

// Message is the Phoenix envelope exchanged on the socket.
type Message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

const (
	eventJoin        = "phx_join"
	eventLeave       = "phx_leave"
	eventReply       = "phx_reply"
	eventError       = "phx_error"
	eventClose       = "phx_close"
	eventHeartbeat   = "heartbeat"
	eventAccessToken = "access_token"
	eventSystem      = "system"

	eventPostgresChanges = "postgres_changes"
	eventBroadcast       = "broadcast"
	eventPresenceState   = "presence_state"
	eventPresenceDiff    = "presence_diff"

	topicPhoenix = "phoenix"
	topicPrefix  = "realtime:"
)

// EventType is the kind of listener registered with Channel.On.
type EventType string

const (
	EventPostgresChanges EventType = "postgres_changes"
	EventBroadcast       EventType = "broadcast"
	EventPresence        EventType = "presence"
)

// Filter narrows a listener. For postgres_changes, Event is "*", "INSERT",
// "UPDATE" or "DELETE" and Schema, Table and Filter (e.g. "id=eq.1") are
// sent to the server exactly as given. For broadcast, Event is the
// broadcast event name or "*". For presence, Event is "sync", "join",
// "leave" or "*".
type Filter struct {
	Event  string `json:"event"`
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table,omitempty"`
	Filter string `json:"filter,omitempty"`
}

// Callback receives the payload of a matching server event unmodified.
type Callback func(payload json.RawMessage)

// Status is reported to the Subscribe status callback.
type Status string

const (
	StatusSubscribed   Status = "SUBSCRIBED"
	StatusTimedOut     Status = "TIMED_OUT"
	StatusClosed       Status = "CLOSED"
	StatusChannelError Status = "CHANNEL_ERROR"
)

// StatusCallback receives subscription status transitions. err is non-nil
// for StatusTimedOut and StatusChannelError.
type StatusCallback func(status Status, err error)

// ChannelState is the lifecycle position of a Channel.
type ChannelState string

const (
	StateCreated    ChannelState = "created"
	StateConfigured ChannelState = "configured"
	StateJoining    ChannelState = "joining"
	StateJoined     ChannelState = "joined"
	StateErrored    ChannelState = "errored"
	StateClosed     ChannelState = "closed"
)

// ChannelOptions tune a channel join.
type ChannelOptions struct {
	// BroadcastSelf delivers the channel's own broadcasts back to it.
	BroadcastSelf bool

	// BroadcastAck makes the server acknowledge each broadcast.
	BroadcastAck bool

	// PresenceKey identifies this client in presence state.
	PresenceKey string

	// Private joins a channel guarded by realtime authorization policies.
	Private bool
}

// BroadcastMessage is sent with Channel.Send.
type BroadcastMessage struct {
	Event   string
	Payload interface{}
}

type joinConfig struct {
	Config struct {
		Broadcast struct {
			Self bool `json:"self"`
			Ack  bool `json:"ack"`
		} `json:"broadcast"`
		Presence struct {
			Key string `json:"key"`
		} `json:"presence"`
		PostgresChanges []Filter `json:"postgres_changes"`
		Private         bool     `json:"private"`
	} `json:"config"`
	AccessToken string `json:"access_token,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type joinResponse struct {
	PostgresChanges []struct {
		ID int64 `json:"id"`
		Filter
	} `json:"postgres_changes"`
	Reason string `json:"reason"`
}

type postgresChangesPayload struct {
	IDs  []int64 `json:"ids"`
	Data struct {
		Type   string `json:"type"`
		Schema string `json:"schema"`
		Table  string `json:"table"`
	} `json:"data"`
}

type broadcastPayload struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type presenceDiffPayload struct {
	Joins  map[string]json.RawMessage `json:"joins"`
	Leaves map[string]json.RawMessage `json:"leaves"`
}
