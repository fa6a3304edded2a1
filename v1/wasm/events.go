//go:build js && wasm

package wasm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"syscall/js"

	"github.com/Aleph-Alpha/supabase-go/v1/auth"
	"github.com/Aleph-Alpha/supabase-go/v1/realtime"
)

var (
	ErrChannelNotFound = errors.New("realtime channel not found")

	handlesMu     sync.Mutex
	subscriptions = make(map[int]*auth.Subscription)
	channels      = make(map[int]*realtime.Channel)
)

// ListenerOption is one entry of the listeners array passed to
// client_channel.
type ListenerOption struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter"`
}

func nextID() int {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	nextHandle++
	return nextHandle
}

// fromJS decodes a JavaScript value into v by way of JSON.
func fromJS(val js.Value, v interface{}) error {
	if val.IsUndefined() || val.IsNull() {
		return nil
	}
	data := js.Global().Get("JSON").Call("stringify", val).String()
	return json.Unmarshal([]byte(data), v)
}

func jsError(err error) js.Value {
	if err == nil {
		return js.Null()
	}
	return js.Global().Get("Error").New(err.Error())
}

// Client_query is client_query(handle, table, options) and resolves to
// {data, count}. See QueryOptions for the options object.
func Client_query(this js.Value, args []js.Value) interface{} {
	return NewPromise(func(resolve ResolveFn, reject RejectFn) {
		if err := checkArgs(args, 3); err != nil {
			reject(err)
			return
		}
		c, err := getClient(args[0].Int())
		if err != nil {
			reject(err)
			return
		}
		var opts QueryOptions
		if err := fromJS(args[2], &opts); err != nil {
			reject(err)
			return
		}
		table := args[1].String()

		go func() {
			resp, err := runQuery(context.Background(), c, table, opts)
			if err != nil {
				reject(err)
				return
			}
			data := json.RawMessage("null")
			if len(resp.Data) > 0 {
				data = resp.Data
			}
			v, err := toJS(map[string]interface{}{"data": data, "count": resp.Count})
			if err != nil {
				reject(err)
				return
			}
			resolve(v)
		}()
	}).JSValue()
}

// Client_onAuthStateChange is client_onAuthStateChange(handle, callback).
// callback(event, session) runs on every auth change. It returns a handle
// for subscription_unsubscribe.
func Client_onAuthStateChange(this js.Value, args []js.Value) interface{} {
	if err := checkArgs(args, 2); err != nil {
		panic(jsError(err))
	}
	c, err := getClient(args[0].Int())
	if err != nil {
		panic(jsError(err))
	}
	callback := args[1]

	sub := c.Auth().OnAuthStateChange(func(event auth.AuthChangeEvent, session *auth.Session) {
		s := js.Null()
		if session != nil {
			if v, err := toJS(session); err == nil {
				s = v
			}
		}
		callback.Invoke(string(event), s)
	})

	id := nextID()
	handlesMu.Lock()
	subscriptions[id] = sub
	handlesMu.Unlock()
	return id
}

// Subscription_unsubscribe is subscription_unsubscribe(handle).
func Subscription_unsubscribe(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return nil
	}
	id := args[0].Int()

	handlesMu.Lock()
	s := subscriptions[id]
	delete(subscriptions, id)
	handlesMu.Unlock()

	if s != nil {
		s.Unsubscribe()
	}
	return nil
}

// Client_channel is client_channel(handle, name, listeners, onEvent,
// onStatus). onEvent(type, event, payload) receives matching server
// events and onStatus(status, error) the subscription status. It resolves
// to a channel handle once the join is sent.
func Client_channel(this js.Value, args []js.Value) interface{} {
	return NewPromise(func(resolve ResolveFn, reject RejectFn) {
		if err := checkArgs(args, 5); err != nil {
			reject(err)
			return
		}
		c, err := getClient(args[0].Int())
		if err != nil {
			reject(err)
			return
		}
		var listeners []ListenerOption
		if err := fromJS(args[2], &listeners); err != nil {
			reject(err)
			return
		}
		name, onEvent, onStatus := args[1].String(), args[3], args[4]

		ch := c.Channel(name)
		for _, l := range listeners {
			l := l
			ch.On(realtime.EventType(l.Type), realtime.Filter{
				Event:  l.Event,
				Schema: l.Schema,
				Table:  l.Table,
				Filter: l.Filter,
			}, func(payload json.RawMessage) {
				v := js.Global().Get("JSON").Call("parse", string(payload))
				onEvent.Invoke(l.Type, l.Event, v)
			})
		}

		go func() {
			err := ch.Subscribe(context.Background(), func(status realtime.Status, err error) {
				onStatus.Invoke(string(status), jsError(err))
			})
			if err != nil {
				reject(err)
				return
			}
			id := nextID()
			handlesMu.Lock()
			channels[id] = ch
			handlesMu.Unlock()
			resolve(id)
		}()
	}).JSValue()
}

// Channel_send is channel_send(channel, event, payload).
func Channel_send(this js.Value, args []js.Value) interface{} {
	return NewPromise(func(resolve ResolveFn, reject RejectFn) {
		if err := checkArgs(args, 3); err != nil {
			reject(err)
			return
		}
		handlesMu.Lock()
		ch := channels[args[0].Int()]
		handlesMu.Unlock()
		if ch == nil {
			reject(ErrChannelNotFound)
			return
		}
		var payload interface{}
		if err := fromJS(args[2], &payload); err != nil {
			reject(err)
			return
		}
		event := args[1].String()

		go func() {
			if err := ch.Send(context.Background(), realtime.BroadcastMessage{Event: event, Payload: payload}); err != nil {
				reject(err)
				return
			}
			resolve(js.Null())
		}()
	}).JSValue()
}

// Client_removeAllChannels is client_removeAllChannels(handle). Channel
// handles of the client stop working.
func Client_removeAllChannels(this js.Value, args []js.Value) interface{} {
	return NewPromise(func(resolve ResolveFn, reject RejectFn) {
		if err := checkArgs(args, 1); err != nil {
			reject(err)
			return
		}
		c, err := getClient(args[0].Int())
		if err != nil {
			reject(err)
			return
		}

		go func() {
			removed := c.Realtime().Channels()
			err := c.RemoveAllChannels(context.Background())
			forgetChannels(removed)
			if err != nil {
				reject(err)
				return
			}
			resolve(js.Null())
		}()
	}).JSValue()
}

func forgetChannels(removed []*realtime.Channel) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	for id, ch := range channels {
		for _, r := range removed {
			if ch == r {
				delete(channels, id)
			}
		}
	}
}
