// internal/room/reducer.go
package room

import (
	"context"

	"github.com/ernsttxbias-web/partyhub/internal/events"
	"github.com/ernsttxbias-web/partyhub/internal/models"
)

// applyAndCache runs the reducer under the lock and writes the room
// snapshot through to the cache whenever it changed. The reducer itself
// must stay pure state mutation; all I/O lives out here.
func (c *Core) applyAndCache(ctx context.Context, ev events.Event) {
	c.mu.Lock()
	changed := c.apply(ev)
	snapshot := c.room.Clone()
	c.mu.Unlock()

	if changed && snapshot != nil {
		if err := c.cache.SetCachedRoom(ctx, snapshot); err != nil {
			c.log.Warnf("caching room snapshot: %v", err)
		}
	}
}

// apply folds one event into local state. Callers hold c.mu. The return
// reports whether the room snapshot changed and needs re-caching.
//
// Every branch tolerates duplicate delivery: the transport is
// at-least-once and unordered, so re-applying an event must land on the
// same state.
func (c *Core) apply(ev events.Event) bool {
	switch ev := ev.(type) {
	case events.PlayerJoined:
		if c.room == nil || c.room.HasPlayer(ev.ID) {
			return false
		}
		c.room.Players = append(c.room.Players, models.Player{
			ID:       ev.ID,
			Name:     ev.Name,
			AvatarID: ev.AvatarID,
			IsOnline: true,
		})
		return true

	case events.PlayerLeft:
		if c.room == nil {
			return false
		}
		for i := range c.room.Players {
			if c.room.Players[i].ID == ev.ID {
				c.room.Players = append(c.room.Players[:i], c.room.Players[i+1:]...)
				return true
			}
		}
		return false

	case events.GameStarted:
		// Forward-only: a stray game_started after the game finished
		// must not resurrect it.
		if c.room == nil || c.room.Status == models.RoomStatusFinished {
			return false
		}
		c.room.Status = models.RoomStatusPlaying
		if ev.TotalRounds > 0 {
			c.room.TotalRounds = ev.TotalRounds
		}
		return true

	case events.NewRound:
		c.round = &models.Round{
			ID:          ev.ID,
			RoundNumber: ev.RoundNumber,
			PickerID:    ev.PickerID,
			Phase:       models.PhasePicking,
		}
		c.guesses = nil
		if c.room != nil {
			c.room.CurrentRound = ev.RoundNumber
			return true
		}
		return false

	case events.LinkSubmitted:
		if c.round == nil {
			return false
		}
		endsAt := ev.PhaseEndsAt
		c.round.TikTokURL = ev.URL
		c.round.Phase = models.PhaseWatching
		c.round.PhaseEndsAt = &endsAt
		return false

	case events.PhaseChange:
		if c.round == nil {
			return false
		}
		c.round.Phase = ev.Phase
		c.round.PhaseEndsAt = ev.PhaseEndsAt
		// Each receiver stamps its own clock on entry to guessing; speed
		// scoring then compares guess timestamps against a local origin
		// instead of trusting the sender's clock.
		if ev.Phase == models.PhaseGuessing && c.round.GuessingStartedAt == 0 {
			c.round.GuessingStartedAt = c.clock.Now().UnixMilli()
		}
		return false

	case events.GuessMade:
		if c.round == nil || HasGuessed(c.guesses, ev.PlayerID) {
			return false
		}
		c.guesses = append(c.guesses, models.Guess(ev))
		return false

	case events.Reveal:
		// The host's guess list replaces local state wholesale so every
		// participant reveals the same set, even ones that missed a
		// guess_made broadcast.
		c.guesses = append([]models.Guess(nil), ev.Guesses...)
		if c.room == nil || c.round == nil || c.revealedRound == c.round.ID {
			return false
		}
		c.revealedRound = c.round.ID
		for _, delta := range ev.Scores {
			if p := c.room.FindPlayer(delta.PlayerID); p != nil {
				p.Score += delta.Points
			}
		}
		return true

	case events.GameEnded:
		if c.room == nil {
			return false
		}
		c.room.Status = models.RoomStatusFinished
		if c.round != nil {
			c.round.Phase = models.PhaseDone
			c.round.PhaseEndsAt = nil
		}
		return true

	case events.HostChanged:
		if c.room == nil {
			return false
		}
		c.room.HostID = ev.NewHostID
		for i := range c.room.Players {
			c.room.Players[i].IsHost = c.room.Players[i].ID == ev.NewHostID
		}
		return true

	default:
		c.log.Warnf("no reducer branch for %T", ev)
		return false
	}
}

// applyPresence reconciles online flags from a presence snapshot. It
// only toggles IsOnline; players are added and removed by their own
// join and leave broadcasts, not by presence churn.
func (c *Core) applyPresence(ctx context.Context, keys []string) {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	c.mu.Lock()
	changed := false
	if c.room != nil {
		for i := range c.room.Players {
			online := present[c.room.Players[i].ID]
			if c.room.Players[i].IsOnline != online {
				c.room.Players[i].IsOnline = online
				changed = true
			}
		}
	}
	snapshot := c.room.Clone()
	c.mu.Unlock()

	if changed && snapshot != nil {
		if err := c.cache.SetCachedRoom(ctx, snapshot); err != nil {
			c.log.Warnf("caching room snapshot: %v", err)
		}
	}
}
