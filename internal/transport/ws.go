// internal/transport/ws.go
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Subprotocol spoken between the websocket transport and the relay.
const Subprotocol = "partyhub"

// FrameType discriminates relay frames.
type FrameType string

const (
	FrameBroadcast FrameType = "broadcast"
	FramePresence  FrameType = "presence"
)

// Frame is the wire format between a websocket client and the relay.
// Broadcast frames carry an event; presence frames carry the full set
// of present keys.
type Frame struct {
	Type    FrameType       `json:"type"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Keys    []string        `json:"keys,omitempty"`
}

// WSTransport joins rooms through a relay server over websocket, for
// clients that cannot reach Redis or NATS directly.
type WSTransport struct {
	baseURL string
	log     logrus.FieldLogger
}

// NewWSTransport points the transport at a relay base URL, e.g.
// "ws://localhost:8080".
func NewWSTransport(baseURL string, log logrus.FieldLogger) *WSTransport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSTransport{baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

type wsChannel struct {
	conn  *websocket.Conn
	topic string
	log   logrus.FieldLogger

	events   chan Message
	presence chan []string
	ready    chan struct{}

	runCtx    context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (t *WSTransport) Join(ctx context.Context, topic, presenceKey string) (Channel, error) {
	endpoint := fmt.Sprintf("%s/rooms/ws/%s?key=%s", t.baseURL, url.PathEscape(topic), url.QueryEscape(presenceKey))

	dialCtx, cancelDial := context.WithTimeout(ctx, 10*time.Second)
	defer cancelDial()
	conn, _, err := websocket.Dial(dialCtx, endpoint, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ch := &wsChannel{
		conn:     conn,
		topic:    topic,
		log:      t.log,
		events:   make(chan Message, 64),
		presence: make(chan []string, 8),
		ready:    make(chan struct{}),
		runCtx:   runCtx,
		cancel:   cancel,
	}

	// The relay registers the connection before its accept completes,
	// so the channel is usable as soon as the dial succeeds.
	close(ch.ready)

	go ch.readPump()
	return ch, nil
}

// readPump routes inbound relay frames to the event and presence
// channels until the connection drops.
func (c *wsChannel) readPump() {
	defer close(c.events)
	for {
		_, data, err := c.conn.Read(c.runCtx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && c.runCtx.Err() == nil {
				c.log.WithField("topic", c.topic).Warnf("relay read error: %v", err)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.WithField("topic", c.topic).Warnf("discarding malformed relay frame: %v", err)
			continue
		}
		switch f.Type {
		case FrameBroadcast:
			select {
			case c.events <- Message{Event: f.Event, Payload: f.Payload}:
			default:
				c.log.WithField("topic", c.topic).Warnf("dropping %s event, subscriber is slow", f.Event)
			}
		case FramePresence:
			select {
			case c.presence <- f.Keys:
			default:
			}
		}
	}
}

// Publish sends a broadcast frame; the relay echoes it back to every
// room connection, this one included.
func (c *wsChannel) Publish(ctx context.Context, event string, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Frame{Type: FrameBroadcast, Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Track is a no-op: the relay tracks presence from the key passed at
// dial time.
func (c *wsChannel) Track(context.Context) error { return nil }

func (c *wsChannel) Events() <-chan Message    { return c.events }
func (c *wsChannel) Presence() <-chan []string { return c.presence }
func (c *wsChannel) Ready() <-chan struct{}    { return c.ready }

func (c *wsChannel) Close(_ context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close(websocket.StatusNormalClosure, "leaving room")
	})
	return err
}

var _ Transport = (*WSTransport)(nil)
