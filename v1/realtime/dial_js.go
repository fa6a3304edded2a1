//go:build js

package realtime

import (
	"context"

	"github.com/coder/websocket"
)

// dial drops headers: browsers cannot set them on the handshake. The apikey
// travels in the endpoint query instead.
func dial(ctx context.Context, endpoint string, _ map[string]string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	return conn, err
}
