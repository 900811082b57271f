// internal/room/client.go
package room

import (
	"log"
)

// Client is a single live connection's presence in the coordinator.
// A new Client (with a fresh ConnID) is created for every WebSocket
// connection; reconnecting players get a new Client bound to their
// existing seat.
type Client struct {
	ConnID  string
	Cancel  func()
	OutChan chan map[string]interface{}
}

// Write pushes a message onto the client's OutChan non-blockingly. Logs if dropped.
func (c *Client) Write(msg map[string]interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Printf("Client Write WARNING: OutChan for conn %s closed or full. Dropped message type '%s'.", c.ConnID, msgType)
	}
}

// WriteError is a convenience to send an error object.
func (c *Client) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}
