// internal/transport/memory.go
package transport

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Broker is an in-process Transport. Every channel joined on the same
// Broker under the same topic shares one fan-out group, which makes it
// the backend for tests and for single-process play.
type Broker struct {
	mu     sync.Mutex
	topics map[string]*brokerTopic
	log    logrus.FieldLogger
}

type brokerTopic struct {
	subs    map[*memoryChannel]struct{}
	present map[string]int
}

// NewBroker returns an empty in-process broker.
func NewBroker(log logrus.FieldLogger) *Broker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Broker{topics: make(map[string]*brokerTopic), log: log}
}

type memoryChannel struct {
	broker      *Broker
	topic       string
	presenceKey string

	events   chan Message
	presence chan []string
	ready    chan struct{}

	closeOnce sync.Once
	tracked   bool
}

// Join subscribes to a topic. The subscription is active immediately.
func (b *Broker) Join(_ context.Context, topic, presenceKey string) (Channel, error) {
	ch := &memoryChannel{
		broker:      b,
		topic:       topic,
		presenceKey: presenceKey,
		events:      make(chan Message, 64),
		presence:    make(chan []string, 8),
		ready:       make(chan struct{}),
	}

	b.mu.Lock()
	t, ok := b.topics[topic]
	if !ok {
		t = &brokerTopic{subs: make(map[*memoryChannel]struct{}), present: make(map[string]int)}
		b.topics[topic] = t
	}
	t.subs[ch] = struct{}{}
	b.mu.Unlock()

	close(ch.ready)
	return ch, nil
}

func (c *memoryChannel) Publish(_ context.Context, event string, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	msg := Message{Event: event, Payload: raw}

	c.broker.mu.Lock()
	t, ok := c.broker.topics[c.topic]
	if !ok {
		c.broker.mu.Unlock()
		return nil
	}
	subs := make([]*memoryChannel, 0, len(t.subs))
	for sub := range t.subs {
		subs = append(subs, sub)
	}
	c.broker.mu.Unlock()

	// Delivery includes the sender: broadcast-self is part of the
	// channel contract.
	for _, sub := range subs {
		select {
		case sub.events <- msg:
		default:
			c.broker.log.WithField("topic", c.topic).Warnf("dropping %s event for slow subscriber", event)
		}
	}
	return nil
}

func (c *memoryChannel) Track(_ context.Context) error {
	if c.presenceKey == "" {
		return nil
	}
	c.broker.mu.Lock()
	t, ok := c.broker.topics[c.topic]
	if ok && !c.tracked {
		c.tracked = true
		t.present[c.presenceKey]++
	}
	c.broker.mu.Unlock()
	if ok {
		c.broker.syncPresence(c.topic)
	}
	return nil
}

func (c *memoryChannel) Events() <-chan Message    { return c.events }
func (c *memoryChannel) Presence() <-chan []string { return c.presence }
func (c *memoryChannel) Ready() <-chan struct{}    { return c.ready }

func (c *memoryChannel) Close(_ context.Context) error {
	c.closeOnce.Do(func() {
		c.broker.mu.Lock()
		t, ok := c.broker.topics[c.topic]
		if ok {
			delete(t.subs, c)
			if c.tracked {
				t.present[c.presenceKey]--
				if t.present[c.presenceKey] <= 0 {
					delete(t.present, c.presenceKey)
				}
			}
			if len(t.subs) == 0 {
				delete(c.broker.topics, c.topic)
				ok = false
			}
		}
		c.broker.mu.Unlock()
		close(c.events)
		if ok {
			c.broker.syncPresence(c.topic)
		}
	})
	return nil
}

// syncPresence emits the current present-key snapshot to every
// subscriber of the topic.
func (b *Broker) syncPresence(topic string) {
	b.mu.Lock()
	t, ok := b.topics[topic]
	if !ok {
		b.mu.Unlock()
		return
	}
	keys := make([]string, 0, len(t.present))
	for k := range t.present {
		keys = append(keys, k)
	}
	subs := make([]*memoryChannel, 0, len(t.subs))
	for sub := range t.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	sort.Strings(keys)
	for _, sub := range subs {
		select {
		case sub.presence <- keys:
		default:
		}
	}
}

var _ Transport = (*Broker)(nil)
