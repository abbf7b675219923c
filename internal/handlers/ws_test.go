// internal/handlers/ws_test.go
package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernsttxbias-web/partyhub/internal/relay"
	"github.com/ernsttxbias-web/partyhub/internal/transport"
)

func newRelayServer(t *testing.T) (*httptest.Server, *relay.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := relay.NewStore(logger)
	srv := httptest.NewServer(RelayWSHandler(logger, store))
	t.Cleanup(srv.Close)
	return srv, store
}

func wsBase(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func recvEvent(t *testing.T, ch transport.Channel) transport.Message {
	t.Helper()
	select {
	case msg := <-ch.Events():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed broadcast")
		return transport.Message{}
	}
}

// waitPresence reads presence snapshots until one matches.
func waitPresence(t *testing.T, ch transport.Channel, want []string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case keys := <-ch.Presence():
			if assert.ObjectsAreEqual(want, keys) {
				return
			}
		case <-deadline:
			t.Fatalf("never saw presence %v", want)
		}
	}
}

func TestRelayEchoesBroadcastsToAllConnections(t *testing.T) {
	srv, _ := newRelayServer(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tr := transport.NewWSTransport(wsBase(srv), logger)
	ctx := context.Background()

	a, err := tr.Join(ctx, "room:ABCDEF", "alice")
	require.NoError(t, err)
	defer a.Close(ctx)
	b, err := tr.Join(ctx, "room:ABCDEF", "bob")
	require.NoError(t, err)
	defer b.Close(ctx)

	waitPresence(t, a, []string{"alice", "bob"})

	require.NoError(t, a.Publish(ctx, "guess_made", map[string]any{"playerId": "alice"}))

	msg := recvEvent(t, a)
	assert.Equal(t, "guess_made", msg.Event, "the relay echoes back to the sender")
	msg = recvEvent(t, b)
	assert.Equal(t, "guess_made", msg.Event)
}

func TestRelayPresenceFollowsDisconnects(t *testing.T) {
	srv, store := newRelayServer(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tr := transport.NewWSTransport(wsBase(srv), logger)
	ctx := context.Background()

	a, err := tr.Join(ctx, "room:QQQQQQ", "alice")
	require.NoError(t, err)
	defer a.Close(ctx)
	b, err := tr.Join(ctx, "room:QQQQQQ", "bob")
	require.NoError(t, err)

	waitPresence(t, a, []string{"alice", "bob"})

	require.NoError(t, b.Close(ctx))
	waitPresence(t, a, []string{"alice"})

	// The room survives while anyone is attached.
	_, ok := store.GetRoom("QQQQQQ")
	assert.True(t, ok)
}

func TestRelayRejectsMalformedRoomCode(t *testing.T) {
	srv, store := newRelayServer(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tr := transport.NewWSTransport(wsBase(srv), logger)
	ctx := context.Background()

	ch, err := tr.Join(ctx, "room:nope", "alice")
	require.NoError(t, err, "the dial itself succeeds; the relay closes with a status code")
	defer ch.Close(ctx)

	select {
	case _, open := <-ch.Events():
		assert.False(t, open, "connection should be closed without delivering events")
	case <-time.After(2 * time.Second):
		t.Fatal("relay never closed the malformed-code connection")
	}
	assert.Equal(t, 0, store.Count())
}
