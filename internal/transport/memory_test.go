// internal/transport/memory_test.go
package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvMessage(t *testing.T, ch Channel) Message {
	t.Helper()
	select {
	case msg := <-ch.Events():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func recvPresence(t *testing.T, ch Channel) []string {
	t.Helper()
	select {
	case keys := <-ch.Presence():
		return keys
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for presence sync")
		return nil
	}
}

func TestBrokerBroadcastIncludesSender(t *testing.T) {
	ctx := context.Background()
	broker := NewBroker(nil)

	a, err := broker.Join(ctx, "room:ABCDEF", "a")
	require.NoError(t, err)
	b, err := broker.Join(ctx, "room:ABCDEF", "b")
	require.NoError(t, err)

	<-a.Ready()
	require.NoError(t, a.Publish(ctx, "guess_made", map[string]any{"playerId": "a"}))

	got := recvMessage(t, a)
	assert.Equal(t, "guess_made", got.Event, "sender receives its own broadcast")
	got = recvMessage(t, b)
	assert.Equal(t, "guess_made", got.Event)
}

func TestBrokerTopicsAreIsolated(t *testing.T) {
	ctx := context.Background()
	broker := NewBroker(nil)

	a, _ := broker.Join(ctx, "room:AAAAAA", "a")
	b, _ := broker.Join(ctx, "room:BBBBBB", "b")

	require.NoError(t, a.Publish(ctx, "player_left", map[string]any{"id": "a"}))

	select {
	case msg := <-b.Events():
		t.Fatalf("event %q leaked across topics", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerPresenceSync(t *testing.T) {
	ctx := context.Background()
	broker := NewBroker(nil)

	a, _ := broker.Join(ctx, "room:ABCDEF", "a")
	b, _ := broker.Join(ctx, "room:ABCDEF", "b")

	require.NoError(t, a.Track(ctx))
	assert.Equal(t, []string{"a"}, recvPresence(t, a))
	assert.Equal(t, []string{"a"}, recvPresence(t, b))

	require.NoError(t, b.Track(ctx))
	assert.Equal(t, []string{"a", "b"}, recvPresence(t, a))

	require.NoError(t, b.Close(ctx))
	assert.Equal(t, []string{"a"}, recvPresence(t, a), "closing drops the key")
}

func TestBrokerCloseEndsEventStream(t *testing.T) {
	ctx := context.Background()
	broker := NewBroker(nil)

	ch, _ := broker.Join(ctx, "room:ABCDEF", "a")
	require.NoError(t, ch.Close(ctx))

	_, open := <-ch.Events()
	assert.False(t, open, "events channel closes with the subscription")
}
