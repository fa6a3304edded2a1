//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/Aleph-Alpha/supabase-go/v1/wasm"
)

func main() {
	js.Global().Set("createClient", js.FuncOf(wasm.NewClient))
	js.Global().Set("client_free", js.FuncOf(wasm.Client_free))
	js.Global().Set("client_signInWithPassword", js.FuncOf(wasm.Client_signInWithPassword))
	js.Global().Set("client_signOut", js.FuncOf(wasm.Client_signOut))
	js.Global().Set("client_select", js.FuncOf(wasm.Client_select))
	js.Global().Set("client_query", js.FuncOf(wasm.Client_query))
	js.Global().Set("client_onAuthStateChange", js.FuncOf(wasm.Client_onAuthStateChange))
	js.Global().Set("subscription_unsubscribe", js.FuncOf(wasm.Subscription_unsubscribe))
	js.Global().Set("client_channel", js.FuncOf(wasm.Client_channel))
	js.Global().Set("channel_send", js.FuncOf(wasm.Channel_send))
	js.Global().Set("client_removeAllChannels", js.FuncOf(wasm.Client_removeAllChannels))

	// keep the exported functions callable
	<-make(chan bool)
}
