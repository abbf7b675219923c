// internal/transport/nats.go
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const natsSubjectPrefix = "partyhub.room."

// NATSTransport runs room channels over core NATS subjects, for
// deployments that already operate a NATS cluster. Presence rides on a
// sibling subject as heartbeat messages; each client ages out keys it
// has not heard from within the TTL.
type NATSTransport struct {
	nc  *nats.Conn
	log logrus.FieldLogger
}

// NewNATSTransport connects to the given NATS URL.
func NewNATSTransport(url string, log logrus.FieldLogger) (*NATSTransport, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warnf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSTransport{nc: nc, log: log}, nil
}

// Close shuts the underlying connection down.
func (t *NATSTransport) Close() {
	t.nc.Close()
}

type heartbeat struct {
	Key string `json:"key"`
}

type natsChannel struct {
	transport   *NATSTransport
	topic       string
	presenceKey string

	events   chan Message
	presence chan []string
	ready    chan struct{}

	eventSub    *nats.Subscription
	presenceSub *nats.Subscription

	runCtx    context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func (t *NATSTransport) Join(_ context.Context, topic, presenceKey string) (Channel, error) {
	runCtx, cancel := context.WithCancel(context.Background())
	ch := &natsChannel{
		transport:   t,
		topic:       topic,
		presenceKey: presenceKey,
		events:      make(chan Message, 64),
		presence:    make(chan []string, 8),
		ready:       make(chan struct{}),
		runCtx:      runCtx,
		cancel:      cancel,
		lastSeen:    make(map[string]time.Time),
	}

	var err error
	ch.eventSub, err = t.nc.Subscribe(natsSubjectPrefix+topic+".events", func(msg *nats.Msg) {
		var m Message
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			t.log.WithField("topic", topic).Warnf("discarding malformed broadcast: %v", err)
			return
		}
		select {
		case ch.events <- m:
		default:
			t.log.WithField("topic", topic).Warnf("dropping %s event, subscriber is slow", m.Event)
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	ch.presenceSub, err = t.nc.Subscribe(natsSubjectPrefix+topic+".presence", func(msg *nats.Msg) {
		var hb heartbeat
		if err := json.Unmarshal(msg.Data, &hb); err != nil || hb.Key == "" {
			return
		}
		ch.mu.Lock()
		ch.lastSeen[hb.Key] = time.Now()
		ch.mu.Unlock()
	})
	if err != nil {
		_ = ch.eventSub.Unsubscribe()
		cancel()
		return nil, fmt.Errorf("subscribe %s presence: %w", topic, err)
	}

	go ch.confirm()
	go ch.sweepLoop()
	return ch, nil
}

// confirm flushes the connection so both subscriptions are known to
// the server before the channel reports ready.
func (c *natsChannel) confirm() {
	if err := c.transport.nc.Flush(); err != nil {
		c.transport.log.WithField("topic", c.topic).Warnf("nats flush failed: %v", err)
		return
	}
	close(c.ready)
}

// sweepLoop expires silent presence keys and emits snapshots on change.
func (c *natsChannel) sweepLoop() {
	ticker := time.NewTicker(presenceHeartbeat)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			keys := make([]string, 0, len(c.lastSeen))
			for key, seen := range c.lastSeen {
				if now.Sub(seen) > presenceTTL {
					delete(c.lastSeen, key)
					continue
				}
				keys = append(keys, key)
			}
			c.mu.Unlock()

			sort.Strings(keys)
			joined := fmt.Sprint(keys)
			if joined == last {
				continue
			}
			last = joined
			select {
			case c.presence <- keys:
			default:
			}
		}
	}
}

func (c *natsChannel) Publish(_ context.Context, event string, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Message{Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return c.transport.nc.Publish(natsSubjectPrefix+c.topic+".events", data)
}

func (c *natsChannel) Track(_ context.Context) error {
	if c.presenceKey == "" {
		return nil
	}
	data, err := json.Marshal(heartbeat{Key: c.presenceKey})
	if err != nil {
		return err
	}
	subject := natsSubjectPrefix + c.topic + ".presence"
	if err := c.transport.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("track presence: %w", err)
	}

	go func() {
		ticker := time.NewTicker(presenceHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-c.runCtx.Done():
				return
			case <-ticker.C:
				if err := c.transport.nc.Publish(subject, data); err != nil {
					c.transport.log.WithField("topic", c.topic).Warnf("presence heartbeat failed: %v", err)
				}
			}
		}
	}()
	return nil
}

func (c *natsChannel) Events() <-chan Message    { return c.events }
func (c *natsChannel) Presence() <-chan []string { return c.presence }
func (c *natsChannel) Ready() <-chan struct{}    { return c.ready }

func (c *natsChannel) Close(_ context.Context) error {
	c.closeOnce.Do(func() {
		c.cancel()
		// The events channel is left open: an in-flight subscription
		// callback may still hold a reference, and consumers stop via
		// their own context anyway.
		_ = c.eventSub.Unsubscribe()
		_ = c.presenceSub.Unsubscribe()
	})
	return nil
}

var _ Transport = (*NATSTransport)(nil)
