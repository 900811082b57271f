// internal/room/room_test.go
package room

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// testRegistry returns a registry with a quiet logger and a grace
// period short enough to exercise expiry in tests.
func testRegistry(grace time.Duration) *Registry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRegistry(logger, grace)
}

// newTestClient builds a client whose outbound traffic can be inspected
// from its buffered channel, standing in for a live WebSocket.
func newTestClient() *Client {
	return &Client{
		ConnID:  uuid.NewString(),
		OutChan: make(chan map[string]interface{}, 64),
	}
}

// drain collects every message currently queued for a client.
func drain(c *Client) []map[string]interface{} {
	var out []map[string]interface{}
	for {
		select {
		case msg := <-c.OutChan:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// lastOfType returns the most recent queued message of the given type, or nil.
func lastOfType(msgs []map[string]interface{}, msgType string) map[string]interface{} {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i]["type"] == msgType {
			return msgs[i]
		}
	}
	return nil
}

// countOfType counts queued messages of the given type.
func countOfType(msgs []map[string]interface{}, msgType string) int {
	n := 0
	for _, m := range msgs {
		if m["type"] == msgType {
			n++
		}
	}
	return n
}

// joinPlayer joins a fresh identity and returns its client and durable id.
func joinPlayer(reg *Registry, code, name, color string) (*Client, uuid.UUID) {
	c := newTestClient()
	id := uuid.New()
	reg.GetOrCreate(code).Join(c, name, color, id, "token-"+id.String(), false)
	return c, id
}
