package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// LiveEvent is one message from the server's live feed stream.
type LiveEvent struct {
	Type    string   `json:"type"`
	Post    *Post    `json:"post,omitempty"`
	Comment *Comment `json:"comment,omitempty"`
}

// Watch connects to the server's websocket live feed and invokes handle for
// every event until ctx is cancelled or the connection drops.
func (c *Client) Watch(ctx context.Context, handle func(LiveEvent)) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
		conn.Close()
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, wsURL)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}

		var event LiveEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("unmarshal event: %w", err)
		}
		handle(event)
	}
}
