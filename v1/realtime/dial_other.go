//go:build !js

package realtime

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
)

func dial(ctx context.Context, endpoint string, headers map[string]string) (*websocket.Conn, error) {
	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}
	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{HTTPHeader: header})
	return conn, err
}
