// internal/room/core.go

// Package room implements the synchronization core: the single place
// that owns room state, applies broadcast events, and publishes this
// device's actions. There is no authoritative server; every participant
// runs one Core and converges by applying the same event stream.
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ernsttxbias-web/partyhub/internal/cache"
	"github.com/ernsttxbias-web/partyhub/internal/events"
	"github.com/ernsttxbias-web/partyhub/internal/models"
	"github.com/ernsttxbias-web/partyhub/internal/scoring"
	"github.com/ernsttxbias-web/partyhub/internal/tiktok"
	"github.com/ernsttxbias-web/partyhub/internal/transport"
)

const (
	// WatchDuration bounds the watching phase after a link lands.
	WatchDuration = 30 * time.Second
	// GuessDuration is the guessing window used for speed scoring.
	GuessDuration = 30 * time.Second
	// subscribeTimeout bounds how long an action waits for the channel
	// to confirm its subscription before publishing anyway.
	subscribeTimeout = 3 * time.Second
)

var (
	// ErrSubscribeTimeout reports that the channel never confirmed its
	// subscription in time. Actions treat it as a warning and publish
	// regardless; the broadcast may simply arrive late.
	ErrSubscribeTimeout = errors.New("room: timed out waiting for subscription")

	// ErrNoRoom means the action needs an attached room and there is none.
	ErrNoRoom = errors.New("room: not in a room")

	// ErrNoRound means the action needs an active round and there is none.
	ErrNoRound = errors.New("room: no active round")

	// ErrInvalidLink rejects links that do not look like a video URL.
	ErrInvalidLink = errors.New("room: invalid video link")
)

// TokenMinter issues reconnect tokens for a player in a room.
type TokenMinter interface {
	Mint(playerID, roomCode string) (string, error)
}

// Core is one participant's view of a room. All state behind mu is
// only ever mutated by the reducer, which runs on the event loop
// goroutine plus the few local actions that seed state directly.
type Core struct {
	log       logrus.FieldLogger
	clock     clockwork.Clock
	cache     *cache.Cache
	transport transport.Transport
	minter    TokenMinter

	mu       sync.Mutex
	channel  transport.Channel
	loopStop context.CancelFunc
	loopDone chan struct{}

	room     *models.Room
	round    *models.Round
	guesses  []models.Guess
	playerID string
	// revealedRound remembers which round already had its reveal
	// applied, so a redelivered reveal cannot double-count scores.
	revealedRound string
}

// Option configures a Core.
type Option func(*Core)

// WithClock swaps the wall clock, used by tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Core) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Core) { c.log = log }
}

// New builds a Core over the given transport and local cache. Each room
// session gets its own Core; nothing here is process-global.
func New(tr transport.Transport, store *cache.Cache, minter TokenMinter, opts ...Option) *Core {
	c := &Core{
		log:       logrus.StandardLogger(),
		clock:     clockwork.NewRealClock(),
		cache:     store,
		transport: tr,
		minter:    minter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRoom creates a fresh room with this device as host and attaches
// to its channel. The snapshot is cached before subscribing so a crash
// mid-join still leaves a resumable session behind.
func (c *Core) CreateRoom(ctx context.Context) (string, error) {
	profile := c.cache.Profile(ctx)
	code := NewCode()

	room := &models.Room{
		Code:   code,
		HostID: profile.ID,
		Status: models.RoomStatusLobby,
		Players: []models.Player{{
			ID:       profile.ID,
			Name:     profile.Name,
			AvatarID: profile.AvatarID,
			IsOnline: true,
			IsHost:   true,
		}},
		TotalRounds: models.DefaultTotalRounds,
	}
	if err := c.cache.SetCachedRoom(ctx, room); err != nil {
		c.log.Warnf("caching room snapshot: %v", err)
	}
	c.storeSession(ctx, profile.ID, code)

	c.mu.Lock()
	c.playerID = profile.ID
	c.room = room
	c.round = nil
	c.guesses = nil
	c.mu.Unlock()

	if err := c.subscribe(ctx, code, profile.ID); err != nil {
		return "", fmt.Errorf("join channel: %w", err)
	}
	return code, nil
}

// JoinRoom attaches to an existing room's channel and announces this
// player. There is no membership registry to check against, so joining
// always succeeds once the code parses; a bad code just lands in an
// empty channel. Local state starts from the cached snapshot when it
// matches, otherwise from a placeholder that fills in as events arrive.
func (c *Core) JoinRoom(ctx context.Context, rawCode string) error {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return err
	}
	profile := c.cache.Profile(ctx)
	c.storeSession(ctx, profile.ID, code)

	room := c.cache.CachedRoom(ctx)
	if room == nil || room.Code != code {
		room = &models.Room{
			Code:   code,
			Status: models.RoomStatusLobby,
			Players: []models.Player{{
				ID:       profile.ID,
				Name:     profile.Name,
				AvatarID: profile.AvatarID,
				IsOnline: true,
			}},
			TotalRounds: models.DefaultTotalRounds,
		}
	}

	c.mu.Lock()
	c.playerID = profile.ID
	c.room = room
	c.round = nil
	c.guesses = nil
	c.mu.Unlock()

	if err := c.subscribe(ctx, code, profile.ID); err != nil {
		return fmt.Errorf("join channel: %w", err)
	}
	return c.broadcast(ctx, events.PlayerJoined{
		ID:       profile.ID,
		Name:     profile.Name,
		AvatarID: profile.AvatarID,
	})
}

// LeaveRoom announces departure, detaches from the channel and clears
// all session state. The departure broadcast is best effort.
func (c *Core) LeaveRoom(ctx context.Context) error {
	c.mu.Lock()
	id := c.playerID
	attached := c.channel != nil
	c.mu.Unlock()

	if attached && id != "" {
		if err := c.broadcast(ctx, events.PlayerLeft{ID: id}); err != nil {
			c.log.Warnf("announcing departure: %v", err)
		}
	}
	c.detach(ctx)

	if err := c.cache.ClearSession(ctx); err != nil {
		c.log.Warnf("clearing session: %v", err)
	}
	if err := c.cache.ClearCachedRoom(ctx); err != nil {
		c.log.Warnf("clearing room snapshot: %v", err)
	}

	c.mu.Lock()
	c.room = nil
	c.round = nil
	c.guesses = nil
	c.playerID = ""
	c.mu.Unlock()
	return nil
}

// StartGame broadcasts the game start and the first round. The round
// count falls back to the default when unset. Host status is advisory;
// the core does not gate actions on it.
func (c *Core) StartGame(ctx context.Context, totalRounds int) error {
	c.mu.Lock()
	room := c.room
	if room == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	if totalRounds <= 0 {
		totalRounds = models.DefaultTotalRounds
	}
	var pickerID string
	if len(room.Players) > 0 {
		pickerID = room.Players[0].ID
	}
	c.mu.Unlock()

	if err := c.broadcast(ctx, events.GameStarted{TotalRounds: totalRounds}); err != nil {
		return err
	}
	return c.broadcast(ctx, events.NewRound{
		ID:          uuid.NewString(),
		RoundNumber: 1,
		PickerID:    pickerID,
	})
}

// SubmitLink validates and broadcasts the picker's video link with an
// absolute watch deadline, so receivers agree on when watching ends no
// matter when the event reaches them.
func (c *Core) SubmitLink(ctx context.Context, url string) error {
	if !tiktok.ValidateURL(url) {
		return ErrInvalidLink
	}
	c.mu.Lock()
	active := c.round != nil
	c.mu.Unlock()
	if !active {
		return ErrNoRound
	}
	return c.broadcast(ctx, events.LinkSubmitted{
		URL:         url,
		PhaseEndsAt: c.clock.Now().Add(WatchDuration),
	})
}

// SubmitGuess broadcasts this player's guess. Correctness is stamped
// here from local state; self-receipt appends it like anyone else's.
func (c *Core) SubmitGuess(ctx context.Context, guessedPlayerID string) error {
	c.mu.Lock()
	round := c.round
	id := c.playerID
	c.mu.Unlock()
	if round == nil {
		return ErrNoRound
	}
	return c.broadcast(ctx, events.GuessMade{
		PlayerID:        id,
		GuessedPlayerID: guessedPlayerID,
		IsCorrect:       guessedPlayerID == round.PickerID,
		Timestamp:       c.clock.Now().UnixMilli(),
	})
}

// TransferHost reassigns the host role to another player.
func (c *Core) TransferHost(ctx context.Context, playerID string) error {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	known := c.room.HasPlayer(playerID)
	c.mu.Unlock()
	if !known {
		return fmt.Errorf("room: no player %s to transfer host to", playerID)
	}
	return c.broadcast(ctx, events.HostChanged{NewHostID: playerID})
}

// AdvancePhase broadcasts a phase change. A window of zero or less
// means the phase is untimed.
func (c *Core) AdvancePhase(ctx context.Context, phase models.RoundPhase, window time.Duration) error {
	if !phase.Valid() {
		return fmt.Errorf("room: unknown phase %q", phase)
	}
	c.mu.Lock()
	active := c.round != nil
	c.mu.Unlock()
	if !active {
		return ErrNoRound
	}
	ev := events.PhaseChange{Phase: phase}
	if window > 0 {
		endsAt := c.clock.Now().Add(window)
		ev.PhaseEndsAt = &endsAt
	}
	return c.broadcast(ctx, ev)
}

// Reveal scores the collected guesses and broadcasts the results. The
// host drives this at the end of the guessing window; every receiver,
// the host included, applies the score increments from the event.
func (c *Core) Reveal(ctx context.Context) error {
	c.mu.Lock()
	round := c.round
	guesses := make([]models.Guess, len(c.guesses))
	copy(guesses, c.guesses)
	c.mu.Unlock()
	if round == nil {
		return ErrNoRound
	}

	results := scoring.ProcessGuesses(guesses, round.GuessingStartedAt, GuessDuration.Milliseconds())
	deltas := scoring.ScoreDeltas(results)

	// Emit deltas in guess order so every receiver sees the same event.
	scores := make([]events.ScoreDelta, 0, len(deltas))
	for _, r := range results {
		if points, ok := deltas[r.PlayerID]; ok {
			scores = append(scores, events.ScoreDelta{PlayerID: r.PlayerID, Points: points})
			delete(deltas, r.PlayerID)
		}
	}

	if err := c.broadcast(ctx, events.PhaseChange{Phase: models.PhaseReveal}); err != nil {
		return err
	}
	return c.broadcast(ctx, events.Reveal{Guesses: guesses, Scores: scores})
}

// NextRound starts the following round with the picker rotated by join
// order, or ends the game when all rounds are played.
func (c *Core) NextRound(ctx context.Context) error {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	if c.round == nil {
		c.mu.Unlock()
		return ErrNoRound
	}
	next := c.round.RoundNumber + 1
	totalRounds := c.room.TotalRounds
	var picker string
	if len(c.room.Players) > 0 {
		picker = c.room.Players[(next-1)%len(c.room.Players)].ID
	}
	c.mu.Unlock()

	if next > totalRounds {
		return c.broadcast(ctx, events.GameEnded{})
	}
	if picker == "" {
		return ErrNoRoom
	}
	return c.broadcast(ctx, events.NewRound{
		ID:          uuid.NewString(),
		RoundNumber: next,
		PickerID:    picker,
	})
}

// EndGame broadcasts the end of the game immediately.
func (c *Core) EndGame(ctx context.Context) error {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	if room == nil {
		return ErrNoRoom
	}
	return c.broadcast(ctx, events.GameEnded{})
}

// Room returns a deep copy of the current room, or nil.
func (c *Core) Room() *models.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room.Clone()
}

// Round returns a copy of the active round, or nil.
func (c *Core) Round() *models.Round {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.round == nil {
		return nil
	}
	cp := *c.round
	return &cp
}

// Guesses returns a copy of this round's guesses.
func (c *Core) Guesses() []models.Guess {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Guess, len(c.guesses))
	copy(out, c.guesses)
	return out
}

// PlayerID returns this device's player id, empty when detached.
func (c *Core) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// IsHost reports whether this device hosts the current room.
func (c *Core) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return IsHost(c.room, c.playerID)
}

// IsPicker reports whether this device picks in the active round.
func (c *Core) IsPicker() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return IsPicker(c.round, c.playerID)
}

// HasGuessed reports whether this device already guessed this round.
func (c *Core) HasGuessed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return HasGuessed(c.guesses, c.playerID)
}

// Close detaches from the channel without touching cached state, so the
// session survives for a reconnect.
func (c *Core) Close(ctx context.Context) {
	c.detach(ctx)
}

// storeSession persists the reconnect session; token minting failures
// degrade to a tokenless session rather than blocking the join.
func (c *Core) storeSession(ctx context.Context, playerID, code string) {
	var token string
	if c.minter != nil {
		var err error
		if token, err = c.minter.Mint(playerID, code); err != nil {
			c.log.Warnf("minting reconnect token: %v", err)
		}
	}
	if err := c.cache.SetSession(ctx, cache.Session{RoomCode: code, ReconnectToken: token}); err != nil {
		c.log.Warnf("storing session: %v", err)
	}
}

// subscribe attaches to the room's channel, replacing any prior one,
// and starts the event loop. Presence tracking begins once the channel
// confirms its subscription.
func (c *Core) subscribe(ctx context.Context, code, presenceKey string) error {
	c.detach(ctx)

	ch, err := c.transport.Join(ctx, "room:"+code, presenceKey)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.channel = ch
	c.loopStop = cancel
	c.loopDone = done
	c.mu.Unlock()

	go c.eventLoop(loopCtx, ch, done)
	go func() {
		select {
		case <-ch.Ready():
			if err := ch.Track(context.Background()); err != nil {
				c.log.WithField("room", code).Warnf("tracking presence: %v", err)
			}
		case <-loopCtx.Done():
		}
	}()
	return nil
}

// detach tears down the current channel and waits for its loop to stop.
func (c *Core) detach(ctx context.Context) {
	c.mu.Lock()
	ch := c.channel
	cancel := c.loopStop
	done := c.loopDone
	c.channel = nil
	c.loopStop = nil
	c.loopDone = nil
	c.mu.Unlock()

	if ch == nil {
		return
	}
	if err := ch.Close(ctx); err != nil {
		c.log.Warnf("closing channel: %v", err)
	}
	cancel()
	<-done
}

// broadcast publishes an event after waiting for subscription
// readiness. A readiness timeout is logged and the publish attempted
// anyway; some transports deliver regardless, and dropping the action
// outright would lose it for sure.
func (c *Core) broadcast(ctx context.Context, ev events.Event) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return ErrNoRoom
	}

	if err := c.awaitReady(ctx, ch); err != nil {
		if errors.Is(err, ErrSubscribeTimeout) {
			c.log.Warnf("publishing %s before subscription confirmed", ev.EventType())
		} else {
			return err
		}
	}
	if err := ch.Publish(ctx, string(ev.EventType()), ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.EventType(), err)
	}
	return nil
}

func (c *Core) awaitReady(ctx context.Context, ch transport.Channel) error {
	select {
	case <-ch.Ready():
		return nil
	default:
	}
	select {
	case <-ch.Ready():
		return nil
	case <-c.clock.After(subscribeTimeout):
		return ErrSubscribeTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// eventLoop applies broadcasts and presence syncs until the channel
// closes or the loop is cancelled.
func (c *Core) eventLoop(ctx context.Context, ch transport.Channel, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch.Events():
			if !ok {
				return
			}
			ev, err := events.Decode(msg.Event, msg.Payload)
			if err != nil {
				c.log.Warnf("skipping broadcast: %v", err)
				continue
			}
			c.applyAndCache(ctx, ev)
		case keys := <-ch.Presence():
			c.applyPresence(ctx, keys)
		}
	}
}
