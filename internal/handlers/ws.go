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

	"github.com/ernsttxbias-web/partyhub/internal/middleware"
	"github.com/ernsttxbias-web/partyhub/internal/relay"
	"github.com/ernsttxbias-web/partyhub/internal/room"
	"github.com/ernsttxbias-web/partyhub/internal/transport"
)

// RelayWSHandler attaches a websocket client to a relay room. The URL
// carries the room code (/rooms/ws/{code}) and the presence key rides
// on the ?key= query parameter. Broadcast frames are echoed to every
// connection in the room, the sender included.
func RelayWSHandler(logger *logrus.Logger, store *relay.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/rooms/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}
		// Topics arrive as "room:CODE" from the websocket transport, or
		// as a bare code from other clients.
		topic := strings.TrimPrefix(pathParts[0], "room:")
		code, err := room.NormalizeCode(topic)

		c, acceptErr := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{transport.Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if acceptErr != nil {
			logger.Warnf("websocket accept error: %v", acceptErr)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != transport.Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the partyhub subprotocol")
			return
		}
		if err != nil {
			c.Close(InvalidRoomCodeError, "invalid room code")
			return
		}

		presenceKey := r.URL.Query().Get("key")
		if presenceKey == "" {
			presenceKey = uuid.NewString()
		}

		rm := store.GetOrCreateRoom(code)

		ctx, cancel := context.WithCancel(r.Context())
		conn := &relay.Conn{
			ID:          uuid.NewString(),
			PresenceKey: presenceKey,
			Cancel:      cancel,
			OutChan:     make(chan transport.Frame, 32),
		}
		rm.AddConnection(conn)
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		go writePump(ctx, c, conn, logger)

		readErr := readPump(ctx, c, rm, conn, logger)

		rm.RemoveConnection(conn.ID)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, readErr)
	}
}

// readPump consumes frames from the websocket and reflects broadcast
// frames into the room. Presence frames from clients are ignored; the
// relay owns presence. Blocks until the connection closes.
func readPump(ctx context.Context, c *websocket.Conn, rm *relay.Room, conn *relay.Conn, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			logger.Warnf("relay: ignoring non-text message from conn %s", conn.ID)
			continue
		}

		var frame transport.Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			logger.Warnf("relay: invalid frame from conn %s: %v", conn.ID, err)
			continue
		}
		if frame.Type != transport.FrameBroadcast || frame.Event == "" {
			continue
		}
		rm.Broadcast(frame)
	}
}

// writePump drains the connection's out queue onto the websocket and
// keeps the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *relay.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-conn.OutChan:
			if !ok {
				// Queue closed; the room removed this connection.
				_ = c.Close(websocket.StatusGoingAway, "removed from room")
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				logger.Warnf("relay: failed to marshal outgoing frame for conn %s: %v", conn.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("relay: write failed for conn %s: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("relay: ping failed for conn %s, assuming disconnect: %v", conn.ID, err)
				return
			}
		}
	}
}
