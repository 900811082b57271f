// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/playtable/coordinator/internal/middleware"
	"github.com/playtable/coordinator/internal/room"
)

// WSHandler accepts table WebSocket connections, assigns each an
// ephemeral connection id, and runs the read/write pumps. A connection
// drop, however it happens, feeds the room's presence machinery.
func WSHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"table"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "table" {
			c.Close(BadSubprotocolError, "client must speak the table subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		client := &room.Client{
			ConnID:  uuid.NewString(),
			Cancel:  cancel,
			OutChan: make(chan map[string]interface{}, 32),
		}
		sess := &session{client: client}

		middleware.LogWebSocketConnect(logger, client.ConnID, remoteAddr, r.URL.Path)

		go writePump(ctx, c, client, logger)

		readErr := readPump(ctx, c, sess, srv, logger)

		// ---- Cleanup after readPump exits ----
		middleware.LogWebSocketDisconnect(logger, client.ConnID, remoteAddr, r.URL.Path, readErr)
		if sess.roomCode != "" {
			if rm, ok := srv.Registry.Get(sess.roomCode); ok {
				rm.HandleDisconnect(client.ConnID)
			}
		}
		cancel()
	}
}

// readPump handles incoming messages until the connection closes.
// Returns the read error that ended the loop, nil on a normal close.
func readPump(ctx context.Context, c *websocket.Conn, sess *session, srv *Server, logger *logrus.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			logger.Warnf("read error for conn %s: %v (CloseStatus: %d)", sess.client.ConnID, err, closeStatus)
			return err
		}

		if typ != websocket.MessageText {
			logger.Warnf("received non-text message type %d from conn %s. Ignoring.", typ, sess.client.ConnID)
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("invalid json from conn %s: %v", sess.client.ConnID, err)
			sess.client.WriteError("Invalid JSON format")
			continue
		}

		srv.HandleMessage(sess, packet)
	}
}

// writePump drains the client's outbound channel onto the socket and
// keeps the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, client *room.Client, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	defer func() {
		_ = c.Close(websocket.StatusGoingAway, "write pump stopping")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outgoing msg for conn %s: %v", client.ConnID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for conn %s: %v", client.ConnID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("failed to ping conn %s: %v. Assuming disconnect.", client.ConnID, err)
				return
			}
		}
	}
}
