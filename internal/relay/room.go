// internal/relay/room.go

// Package relay fans websocket frames out to everyone attached to a
// room, the sender included. It never inspects game events; all game
// semantics live in the clients, the relay is a dumb reflector with
// presence bookkeeping.
package relay

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ernsttxbias-web/partyhub/internal/transport"
)

// Conn is a single websocket client's attachment to a relay room.
type Conn struct {
	// ID identifies this connection; one presence key may hold several
	// connections (same player, multiple tabs).
	ID          string
	PresenceKey string
	Cancel      func()
	OutChan     chan transport.Frame
}

// Write pushes a frame onto the connection's out queue non-blockingly.
// A full queue drops the frame; the client-side core tolerates loss the
// same way it tolerates any unreliable delivery.
func (conn *Conn) Write(log logrus.FieldLogger, frame transport.Frame) {
	select {
	case conn.OutChan <- frame:
	default:
		log.WithFields(logrus.Fields{
			"conn":  conn.ID,
			"frame": frame.Type,
		}).Warn("out queue full, dropping frame")
	}
}

// Room is one fanout group, keyed by room code.
type Room struct {
	Code string

	// Connections maps connection ID to the live attachment.
	Connections map[string]*Conn

	// OnEmpty is called after the last connection detaches, typically
	// wired to Store.DeleteRoom by whoever created the room.
	OnEmpty func(code string)

	Mu  sync.Mutex
	log logrus.FieldLogger
}

// NewRoom creates an empty relay room for the given code.
func NewRoom(code string, log logrus.FieldLogger) *Room {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Room{
		Code:        code,
		Connections: make(map[string]*Conn),
		log:         log.WithField("room", code),
	}
}

// AddConnection attaches a connection and pushes a fresh presence
// snapshot to everyone, the newcomer included.
func (r *Room) AddConnection(conn *Conn) {
	r.Mu.Lock()
	if old, ok := r.Connections[conn.ID]; ok && old != conn {
		close(old.OutChan)
		if old.Cancel != nil {
			old.Cancel()
		}
	}
	r.Connections[conn.ID] = conn
	r.log.WithField("conn", conn.ID).Infof("connection attached (%d total)", len(r.Connections))
	r.syncPresenceUnsafe()
	r.Mu.Unlock()
}

// RemoveConnection detaches a connection, resyncs presence and fires
// OnEmpty when the room drains.
func (r *Room) RemoveConnection(connID string) {
	r.Mu.Lock()
	conn, ok := r.Connections[connID]
	if !ok {
		r.Mu.Unlock()
		return
	}
	delete(r.Connections, connID)
	close(conn.OutChan)
	if conn.Cancel != nil {
		conn.Cancel()
	}
	r.log.WithField("conn", connID).Infof("connection detached (%d left)", len(r.Connections))

	isEmpty := len(r.Connections) == 0
	onEmpty := r.OnEmpty
	if !isEmpty {
		r.syncPresenceUnsafe()
	}
	r.Mu.Unlock()

	if isEmpty && onEmpty != nil {
		onEmpty(r.Code)
	}
}

// Broadcast echoes a frame to every connection, the sender included.
// Self-receipt is what lets client cores treat their own actions and
// everyone else's uniformly.
func (r *Room) Broadcast(frame transport.Frame) {
	r.Mu.Lock()
	r.BroadcastUnsafe(frame)
	r.Mu.Unlock()
}

// BroadcastUnsafe sends without acquiring the lock. Assumes the caller
// holds r.Mu.
func (r *Room) BroadcastUnsafe(frame transport.Frame) {
	for _, conn := range r.Connections {
		conn.Write(r.log, frame)
	}
}

// PresenceKeysUnsafe returns the sorted distinct presence keys.
// Assumes the caller holds r.Mu.
func (r *Room) PresenceKeysUnsafe() []string {
	seen := make(map[string]bool, len(r.Connections))
	keys := make([]string, 0, len(r.Connections))
	for _, conn := range r.Connections {
		if conn.PresenceKey == "" || seen[conn.PresenceKey] {
			continue
		}
		seen[conn.PresenceKey] = true
		keys = append(keys, conn.PresenceKey)
	}
	sort.Strings(keys)
	return keys
}

// syncPresenceUnsafe broadcasts the current presence snapshot. Assumes
// the caller holds r.Mu.
func (r *Room) syncPresenceUnsafe() {
	r.BroadcastUnsafe(transport.Frame{
		Type: transport.FramePresence,
		Keys: r.PresenceKeysUnsafe(),
	})
}
