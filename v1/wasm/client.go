//go:build js && wasm

// Package wasm exports a project client to browser JavaScript. Clients are
// referenced from JavaScript by the integer handle createClient returns and
// must be released with client_free.
package wasm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/Aleph-Alpha/supabase-go/v1/auth"
	"github.com/Aleph-Alpha/supabase-go/v1/supabase"
)

var (
	ErrClientNotFound = errors.New("supabase client not found")

	clientsMu  sync.Mutex
	clients    = make(map[int]*supabase.Client)
	nextHandle int
)

func storeClient(c *supabase.Client) int {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	nextHandle++
	clients[nextHandle] = c
	return nextHandle
}

func getClient(handle int) (*supabase.Client, error) {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	c, ok := clients[handle]
	if !ok {
		return nil, ErrClientNotFound
	}
	return c, nil
}

func checkArgs(args []js.Value, want int) error {
	if len(args) != want {
		return fmt.Errorf("invalid number of arguments: %d. expected: %d", len(args), want)
	}
	return nil
}

// toJS turns v into a plain JavaScript object by way of JSON.
func toJS(v interface{}) (js.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return js.Undefined(), err
	}
	return js.Global().Get("JSON").Call("parse", string(data)), nil
}

// NewClient is createClient(url, key). It throws on a malformed URL.
func NewClient(this js.Value, args []js.Value) interface{} {
	if err := checkArgs(args, 2); err != nil {
		panic(js.Global().Get("Error").New(err.Error()))
	}

	c, err := supabase.NewClient(supabase.Config{
		URL:    args[0].String(),
		APIKey: args[1].String(),
	})
	if err != nil {
		panic(js.Global().Get("Error").New(err.Error()))
	}
	return storeClient(c)
}

// Client_free is client_free(handle).
func Client_free(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return nil
	}
	handle := args[0].Int()

	clientsMu.Lock()
	c := clients[handle]
	delete(clients, handle)
	clientsMu.Unlock()

	if c != nil {
		go func() { _ = c.Close(context.Background()) }()
	}
	return nil
}

// Client_signInWithPassword is client_signInWithPassword(handle, email,
// password) and resolves to the session object.
func Client_signInWithPassword(this js.Value, args []js.Value) interface{} {
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
		email, password := args[1].String(), args[2].String()

		go func() {
			session, err := c.Auth().SignInWithPassword(context.Background(), auth.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				reject(err)
				return
			}
			v, err := toJS(session)
			if err != nil {
				reject(err)
				return
			}
			resolve(v)
		}()
	}).JSValue()
}

// Client_signOut is client_signOut(handle).
func Client_signOut(this js.Value, args []js.Value) interface{} {
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
			if err := c.Auth().SignOut(context.Background()); err != nil {
				reject(err)
				return
			}
			resolve(js.Null())
		}()
	}).JSValue()
}

// Client_select is client_select(handle, table, columns) and resolves to
// the rows.
func Client_select(this js.Value, args []js.Value) interface{} {
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
		table, columns := args[1].String(), args[2].String()

		go func() {
			resp, err := c.From(table).Select(columns).Execute(context.Background())
			if err != nil {
				reject(err)
				return
			}
			resolve(js.Global().Get("JSON").Call("parse", string(resp.Data)))
		}()
	}).JSValue()
}
