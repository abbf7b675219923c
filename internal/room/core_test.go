// internal/room/core_test.go
package room

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernsttxbias-web/partyhub/internal/cache"
	"github.com/ernsttxbias-web/partyhub/internal/models"
	"github.com/ernsttxbias-web/partyhub/internal/transport"
)

// waitFor polls until cond holds; events flow through the core's loop
// goroutine, so assertions on applied state need to wait for it.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("state never converged")
}

func newTestCore(t *testing.T, broker *transport.Broker, fc clockwork.Clock, name string) (*Core, *cache.Cache) {
	t.Helper()
	store := cache.New(cache.NewMemoryStore(), fc)
	require.NoError(t, store.SetProfile(context.Background(), cache.Profile{Name: name}))
	return New(broker, store, nil, WithClock(fc)), store
}

func TestCreateRoomSeedsStateAndCache(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	core, store := newTestCore(t, transport.NewBroker(nil), fc, "Alice")

	code, err := core.CreateRoom(ctx)
	require.NoError(t, err)
	defer core.Close(ctx)

	_, err = NormalizeCode(code)
	assert.NoError(t, err)

	room := core.Room()
	require.NotNil(t, room)
	assert.Equal(t, code, room.Code)
	assert.Equal(t, models.RoomStatusLobby, room.Status)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	assert.True(t, core.IsHost())

	cached := store.CachedRoom(ctx)
	require.NotNil(t, cached, "snapshot is cached at creation, before any event")
	assert.Equal(t, code, cached.Code)
	assert.Equal(t, code, store.Session(ctx).RoomCode)
}

func TestJoinRoomRejectsMalformedCode(t *testing.T) {
	fc := clockwork.NewFakeClock()
	core, _ := newTestCore(t, transport.NewBroker(nil), fc, "Alice")

	err := core.JoinRoom(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestActionsWithoutRoomFail(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	core, _ := newTestCore(t, transport.NewBroker(nil), fc, "Alice")

	assert.ErrorIs(t, core.StartGame(ctx, 3), ErrNoRoom)
	assert.ErrorIs(t, core.SubmitGuess(ctx, "x"), ErrNoRound)
	assert.ErrorIs(t, core.Reveal(ctx), ErrNoRound)
	assert.ErrorIs(t, core.EndGame(ctx), ErrNoRoom)
	assert.ErrorIs(t, core.SubmitLink(ctx, "https://www.tiktok.com/@u/video/1"), ErrNoRound)
}

func TestSubmitLinkValidatesURL(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	core, _ := newTestCore(t, transport.NewBroker(nil), fc, "Alice")

	_, err := core.CreateRoom(ctx)
	require.NoError(t, err)
	defer core.Close(ctx)

	assert.ErrorIs(t, core.SubmitLink(ctx, "https://example.com/watch"), ErrInvalidLink)
	assert.ErrorIs(t, core.SubmitLink(ctx, "not a url"), ErrInvalidLink)
}

// TestTwoCoresPlayARound drives a full round across two cores sharing a
// broker: join, start, link, guess, reveal, end. Both sides must
// converge to identical state from the broadcast stream alone.
func TestTwoCoresPlayARound(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	broker := transport.NewBroker(nil)

	host, hostStore := newTestCore(t, broker, fc, "Alice")
	guest, guestStore := newTestCore(t, broker, fc, "Bob")

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	defer host.Close(ctx)

	require.NoError(t, guest.JoinRoom(ctx, code))
	defer guest.Close(ctx)

	waitFor(t, func() bool {
		r := host.Room()
		return r != nil && len(r.Players) == 2
	})
	assert.Equal(t, "Bob", host.Room().Players[1].Name)
	assert.False(t, guest.IsHost())

	require.NoError(t, host.StartGame(ctx, 1))
	waitFor(t, func() bool {
		hr, gr := host.Room(), guest.Room()
		return hr.Status == models.RoomStatusPlaying && gr.Status == models.RoomStatusPlaying &&
			host.Round() != nil && guest.Round() != nil
	})
	assert.Equal(t, host.PlayerID(), host.Round().PickerID, "first round picker is the first joiner")
	assert.True(t, host.IsPicker())
	assert.False(t, guest.IsPicker())
	assert.Equal(t, 1, guest.Room().TotalRounds)

	require.NoError(t, host.SubmitLink(ctx, "https://www.tiktok.com/@alice/video/42"))
	waitFor(t, func() bool {
		r := guest.Round()
		return r != nil && r.Phase == models.PhaseWatching
	})
	require.NotNil(t, guest.Round().PhaseEndsAt)
	assert.Equal(t, fc.Now().Add(WatchDuration).UnixMilli(), guest.Round().PhaseEndsAt.UnixMilli())

	require.NoError(t, host.AdvancePhase(ctx, models.PhaseGuessing, GuessDuration))
	waitFor(t, func() bool {
		hr, gr := host.Round(), guest.Round()
		return hr.Phase == models.PhaseGuessing && gr.Phase == models.PhaseGuessing &&
			hr.GuessingStartedAt > 0 && gr.GuessingStartedAt > 0
	})

	require.NoError(t, guest.SubmitGuess(ctx, host.PlayerID()))
	waitFor(t, func() bool {
		return len(host.Guesses()) == 1 && len(guest.Guesses()) == 1
	})
	assert.True(t, guest.HasGuessed())
	assert.False(t, host.HasGuessed())
	assert.True(t, host.Guesses()[0].IsCorrect)

	require.NoError(t, host.Reveal(ctx))
	waitFor(t, func() bool {
		hr, gr := host.Room(), guest.Room()
		return hr.FindPlayer(guest.PlayerID()).Score > 0 && gr.FindPlayer(guest.PlayerID()).Score > 0
	})
	// Instant correct guess: base 10 plus the full speed bonus.
	assert.Equal(t, 20, host.Room().FindPlayer(guest.PlayerID()).Score)
	assert.Equal(t, 20, guest.Room().FindPlayer(guest.PlayerID()).Score)
	assert.Equal(t, models.PhaseReveal, guest.Round().Phase)

	// One round was requested, so the next round ends the game.
	require.NoError(t, host.NextRound(ctx))
	waitFor(t, func() bool {
		return host.Room().Status == models.RoomStatusFinished &&
			guest.Room().Status == models.RoomStatusFinished
	})

	// Both caches hold the converged snapshot.
	assert.Equal(t, models.RoomStatusFinished, hostStore.CachedRoom(ctx).Status)
	assert.Equal(t, 20, guestStore.CachedRoom(ctx).FindPlayer(guest.PlayerID()).Score)
}

func TestNextRoundRotatesPicker(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	broker := transport.NewBroker(nil)

	host, _ := newTestCore(t, broker, fc, "Alice")
	guest, _ := newTestCore(t, broker, fc, "Bob")

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	defer host.Close(ctx)
	require.NoError(t, guest.JoinRoom(ctx, code))
	defer guest.Close(ctx)

	waitFor(t, func() bool { return len(host.Room().Players) == 2 })

	require.NoError(t, host.StartGame(ctx, 3))
	waitFor(t, func() bool { return host.Round() != nil && host.Round().RoundNumber == 1 })

	require.NoError(t, host.NextRound(ctx))
	waitFor(t, func() bool { return host.Round().RoundNumber == 2 })
	assert.Equal(t, guest.PlayerID(), host.Round().PickerID, "picker rotates by join order")

	require.NoError(t, host.NextRound(ctx))
	waitFor(t, func() bool { return host.Round().RoundNumber == 3 })
	assert.Equal(t, host.PlayerID(), host.Round().PickerID, "rotation wraps around")
}

func TestLeaveRoomClearsSessionAndRoster(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	broker := transport.NewBroker(nil)

	host, _ := newTestCore(t, broker, fc, "Alice")
	guest, guestStore := newTestCore(t, broker, fc, "Bob")

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	defer host.Close(ctx)
	require.NoError(t, guest.JoinRoom(ctx, code))

	waitFor(t, func() bool { return len(host.Room().Players) == 2 })

	guestID := guest.PlayerID()
	require.NoError(t, guest.LeaveRoom(ctx))

	assert.Nil(t, guest.Room())
	assert.Empty(t, guest.PlayerID())
	assert.Empty(t, guestStore.Session(ctx).RoomCode)
	assert.Nil(t, guestStore.CachedRoom(ctx))

	waitFor(t, func() bool { return len(host.Room().Players) == 1 })
	assert.False(t, host.Room().HasPlayer(guestID))
}

func TestTransferHostRequiresKnownPlayer(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	broker := transport.NewBroker(nil)

	host, _ := newTestCore(t, broker, fc, "Alice")
	guest, _ := newTestCore(t, broker, fc, "Bob")

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	defer host.Close(ctx)
	require.NoError(t, guest.JoinRoom(ctx, code))
	defer guest.Close(ctx)

	waitFor(t, func() bool { return len(host.Room().Players) == 2 })

	assert.Error(t, host.TransferHost(ctx, "nobody"))

	require.NoError(t, host.TransferHost(ctx, guest.PlayerID()))
	waitFor(t, func() bool { return guest.IsHost() && !host.IsHost() })
	assert.Equal(t, guest.PlayerID(), host.Room().HostID)
}

// stubChannel never confirms readiness, for exercising the subscribe
// timeout path.
type stubChannel struct {
	ready     chan struct{}
	published chan string
}

func newStubChannel() *stubChannel {
	return &stubChannel{ready: make(chan struct{}), published: make(chan string, 4)}
}

func (s *stubChannel) Publish(_ context.Context, event string, _ any) error {
	s.published <- event
	return nil
}
func (s *stubChannel) Track(context.Context) error      { return nil }
func (s *stubChannel) Events() <-chan transport.Message { return nil }
func (s *stubChannel) Presence() <-chan []string        { return nil }
func (s *stubChannel) Ready() <-chan struct{}           { return s.ready }
func (s *stubChannel) Close(context.Context) error      { return nil }

func TestBroadcastPublishesAfterReadyTimeout(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	core, _ := newTestCore(t, transport.NewBroker(nil), fc, "Alice")

	stub := newStubChannel()
	core.mu.Lock()
	core.channel = stub
	core.room = &models.Room{Code: "ABCDEF", Players: []models.Player{{ID: "alice"}}}
	core.playerID = "alice"
	core.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- core.TransferHost(ctx, "alice")
	}()

	fc.BlockUntil(1)
	fc.Advance(subscribeTimeout)

	require.NoError(t, <-errCh, "timeout is soft, the publish still goes out")
	select {
	case event := <-stub.published:
		assert.Equal(t, "host_changed", event)
	case <-time.After(time.Second):
		t.Fatal("nothing was published after the ready timeout")
	}
}
