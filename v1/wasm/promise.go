//go:build js && wasm

package wasm

import (
	"syscall/js"
)

type Promise struct {
	jsValue js.Value
}

type ResolveFn = func(interface{})
type RejectFn = func(error)
type PromiseFn = func(ResolveFn, RejectFn)

// NewPromise runs fn synchronously inside a JavaScript Promise executor.
// fn usually starts a goroutine and calls resolve or reject from it.
func NewPromise(fn PromiseFn) *Promise {
	var executor js.Func
	executor = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		defer executor.Release()

		resolveFn, rejectFn := args[0], args[1]
		resolve := func(val interface{}) {
			resolveFn.Invoke(val)
		}
		reject := func(err error) {
			rejectFn.Invoke(js.Global().Get("Error").New(err.Error()))
		}

		fn(resolve, reject)
		return nil
	})

	return &Promise{
		jsValue: js.Global().Get("Promise").New(executor),
	}
}

func (p *Promise) JSValue() js.Value {
	return p.jsValue
}
