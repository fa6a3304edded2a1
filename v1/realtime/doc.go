// Package realtime is the realtime surface of a Supabase project: channels
// multiplexed over one Phoenix websocket.
//
// A channel is created by name, given listeners, then subscribed:
//
//	ch := client.Channel("room-1")
//	ch.On(realtime.EventPostgresChanges, realtime.Filter{
//	    Event:  "INSERT",
//	    Schema: "public",
//	    Table:  "messages",
//	}, func(payload json.RawMessage) {
//	    // payload is the server event, unmodified
//	})
//	err := ch.Subscribe(ctx, func(status realtime.Status, err error) {
//	    log.Println(status, err)
//	})
//
// Subscribe returns once the join is sent. The outcome arrives on the status
// callback: StatusSubscribed, StatusChannelError (rejected join, binding
// mismatch, lost socket) or StatusTimedOut. Listeners added after Subscribe
// are not registered and the channel's Err reports ErrBindAfterSubscribe.
//
// Callbacks run on the socket's read goroutine in registration order.
// RemoveAllChannels may be called from a callback.
//
// The socket sends a heartbeat every HeartbeatInterval. When a heartbeat is
// not acknowledged before the next one is due the socket is closed and every
// active channel receives StatusChannelError wrapping ErrConnectionLost.
// There is no automatic reconnect. A channel that reported an error can be
// subscribed again, which redials the socket if it was lost.
package realtime
