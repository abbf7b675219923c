// internal/transport/transport.go

// Package transport abstracts the per-room realtime broadcast channel.
// A channel delivers every published event to all current subscribers,
// the sender included, with at-least-once semantics; ordering is only
// as strong as the backend gives per sender. Presence is tracked per
// key and surfaced as full snapshots of the present key set.
package transport

import (
	"context"
	"encoding/json"
)

// Message is one broadcast event as delivered to a subscriber.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Channel is a live subscription to one room topic.
type Channel interface {
	// Publish broadcasts an event to every subscriber, including the
	// publishing client itself.
	Publish(ctx context.Context, event string, payload any) error

	// Track registers this client's presence key on the topic.
	Track(ctx context.Context) error

	// Events yields inbound broadcasts. The channel is closed when the
	// subscription ends.
	Events() <-chan Message

	// Presence yields snapshots of the currently present keys whenever
	// the set changes.
	Presence() <-chan []string

	// Ready is closed once the subscription is confirmed active.
	// Publishing before then may be silently lost by some backends.
	Ready() <-chan struct{}

	Close(ctx context.Context) error
}

// Transport opens channels. One client holds at most one channel at a
// time; callers close the old channel before joining a new topic.
type Transport interface {
	Join(ctx context.Context, topic, presenceKey string) (Channel, error)
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
