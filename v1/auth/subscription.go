package auth

import (
	"context"
	"sync"
)

// StateChangeFunc receives auth state transitions. session is nil for SignedOut.
type StateChangeFunc func(event AuthChangeEvent, session *Session)

// Subscription is the handle returned by OnAuthStateChange. The callback
// keeps firing until Unsubscribe is called.
type Subscription struct {
	id     uint64
	client *AuthClient
	once   sync.Once
}

// Unsubscribe removes the callback. After it returns the callback is never
// invoked again. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.listenersMu.Lock()
		defer s.client.listenersMu.Unlock()
		delete(s.client.listeners, s.id)
	})
}

type listener struct {
	id uint64
	fn StateChangeFunc
}

// OnAuthStateChange registers fn for every subsequent state change.
// Callbacks run synchronously, in registration order, on the goroutine that
// completed the operation causing the change.
func (a *AuthClient) OnAuthStateChange(fn StateChangeFunc) *Subscription {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()

	a.nextListenerID++
	id := a.nextListenerID
	a.listeners[id] = fn
	a.listenerOrder = append(a.listenerOrder, id)

	return &Subscription{id: id, client: a}
}

func (a *AuthClient) notify(ctx context.Context, event AuthChangeEvent, session *Session) {
	a.listenersMu.Lock()
	active := make([]listener, 0, len(a.listeners))
	order := a.listenerOrder[:0]
	for _, id := range a.listenerOrder {
		fn, ok := a.listeners[id]
		if !ok {
			continue
		}
		order = append(order, id)
		active = append(active, listener{id: id, fn: fn})
	}
	a.listenerOrder = order
	a.listenersMu.Unlock()

	a.logInfo(ctx, "auth state changed", map[string]interface{}{
		"event":     string(event),
		"listeners": len(active),
	})

	for _, l := range active {
		if !a.listening(l.id) {
			continue
		}
		l.fn(event, cloneSession(session))
	}
}

func (a *AuthClient) listening(id uint64) bool {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()
	_, ok := a.listeners[id]
	return ok
}
