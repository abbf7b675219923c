// internal/transport/redis.go
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	redisEventPrefix    = "partyhub:room:"
	redisPresencePrefix = "partyhub:presence:"

	presenceTTL       = 15 * time.Second
	presenceHeartbeat = 5 * time.Second
)

// RedisTransport runs room channels over Redis Pub/Sub. Presence is a
// per-key TTL entry refreshed by heartbeats and observed by a periodic
// scan, so a crashed client drops off within the TTL.
type RedisTransport struct {
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewRedisTransport connects a transport to Redis and verifies the
// connection.
func NewRedisTransport(ctx context.Context, addr string, db int, log logrus.FieldLogger) (*RedisTransport, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &RedisTransport{rdb: rdb, log: log}, nil
}

type redisChannel struct {
	transport   *RedisTransport
	topic       string
	presenceKey string

	pubsub   *redis.PubSub
	events   chan Message
	presence chan []string
	ready    chan struct{}

	runCtx    context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (t *RedisTransport) Join(ctx context.Context, topic, presenceKey string) (Channel, error) {
	runCtx, cancel := context.WithCancel(context.Background())

	ch := &redisChannel{
		transport:   t,
		topic:       topic,
		presenceKey: presenceKey,
		pubsub:      t.rdb.Subscribe(runCtx, redisEventPrefix+topic),
		events:      make(chan Message, 64),
		presence:    make(chan []string, 8),
		ready:       make(chan struct{}),
		runCtx:      runCtx,
		cancel:      cancel,
	}

	ch.wg.Add(2)
	go ch.receiveLoop(runCtx)
	go ch.presenceLoop(runCtx)
	return ch, nil
}

// receiveLoop confirms the subscription, then forwards broadcasts.
func (c *redisChannel) receiveLoop(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.events)

	// The first Receive returns the subscription confirmation; only
	// after that are publishes guaranteed to reach this client.
	if _, err := c.pubsub.Receive(ctx); err != nil {
		c.transport.log.WithField("topic", c.topic).Warnf("redis subscribe failed: %v", err)
		return
	}
	close(c.ready)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.pubsub.Channel():
			if !ok {
				return
			}
			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				c.transport.log.WithField("topic", c.topic).Warnf("discarding malformed broadcast: %v", err)
				continue
			}
			select {
			case c.events <- m:
			default:
				c.transport.log.WithField("topic", c.topic).Warnf("dropping %s event, subscriber is slow", m.Event)
			}
		}
	}
}

// presenceLoop scans the presence keyspace for this topic and emits a
// snapshot whenever the present set changes.
func (c *redisChannel) presenceLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(presenceHeartbeat)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			keys, err := c.scanPresent(ctx)
			if err != nil {
				if ctx.Err() == nil {
					c.transport.log.WithField("topic", c.topic).Warnf("presence scan failed: %v", err)
				}
				continue
			}
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

func (c *redisChannel) scanPresent(ctx context.Context) ([]string, error) {
	pattern := redisPresencePrefix + c.topic + ":*"
	prefixLen := len(redisPresencePrefix + c.topic + ":")

	var keys []string
	iter := c.transport.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[prefixLen:])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *redisChannel) Publish(ctx context.Context, event string, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Message{Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return c.transport.rdb.Publish(ctx, redisEventPrefix+c.topic, data).Err()
}

// Track writes this client's presence key and keeps it alive with
// heartbeats until the channel closes.
func (c *redisChannel) Track(ctx context.Context) error {
	if c.presenceKey == "" {
		return nil
	}
	key := redisPresencePrefix + c.topic + ":" + c.presenceKey
	if err := c.transport.rdb.Set(ctx, key, "1", presenceTTL).Err(); err != nil {
		return fmt.Errorf("track presence: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(presenceHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-c.runCtx.Done():
				return
			case <-ticker.C:
				if err := c.transport.rdb.Set(context.Background(), key, "1", presenceTTL).Err(); err != nil {
					c.transport.log.WithField("topic", c.topic).Warnf("presence heartbeat failed: %v", err)
				}
			}
		}
	}()
	return nil
}

func (c *redisChannel) Events() <-chan Message    { return c.events }
func (c *redisChannel) Presence() <-chan []string { return c.presence }
func (c *redisChannel) Ready() <-chan struct{}    { return c.ready }

func (c *redisChannel) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.presenceKey != "" {
			key := redisPresencePrefix + c.topic + ":" + c.presenceKey
			_ = c.transport.rdb.Del(ctx, key).Err()
		}
		err = c.pubsub.Close()
		c.wg.Wait()
	})
	return err
}

var _ Transport = (*RedisTransport)(nil)
