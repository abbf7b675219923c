// internal/events/events.go

// Package events defines the broadcast event schema for a room channel.
// Every event is a distinct payload type behind the Event interface, so
// reducers dispatch with an exhaustive type switch instead of branching
// on untyped maps.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ernsttxbias-web/partyhub/internal/models"
)

// Type is the wire name of an event.
type Type string

const (
	TypePlayerJoined  Type = "player_joined"
	TypePlayerLeft    Type = "player_left"
	TypeGameStarted   Type = "game_started"
	TypeNewRound      Type = "new_round"
	TypeLinkSubmitted Type = "link_submitted"
	TypePhaseChange   Type = "phase_change"
	TypeGuessMade     Type = "guess_made"
	TypeReveal        Type = "reveal"
	TypeGameEnded     Type = "game_ended"
	TypeHostChanged   Type = "host_changed"
)

// Event is implemented by every broadcast payload.
type Event interface {
	EventType() Type
}

// PlayerJoined announces a new player. Receivers must treat it as
// idempotent; the transport is at-least-once.
type PlayerJoined struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AvatarID int    `json:"avatarId"`
}

// PlayerLeft removes a player from the roster.
type PlayerLeft struct {
	ID string `json:"id"`
}

// GameStarted moves the room into playing with the given round count.
type GameStarted struct {
	TotalRounds int `json:"totalRounds"`
}

// NewRound replaces the current round and clears all guesses.
type NewRound struct {
	ID          string `json:"id"`
	RoundNumber int    `json:"roundNumber"`
	PickerID    string `json:"pickerId"`
}

// LinkSubmitted carries the picker's video link and the watch deadline.
type LinkSubmitted struct {
	URL         string    `json:"url"`
	PhaseEndsAt time.Time `json:"phaseEndsAt"`
}

// PhaseChange advances the round phase. PhaseEndsAt nil means untimed.
// Receivers entering the guessing phase stamp their own wall clock.
type PhaseChange struct {
	Phase       models.RoundPhase `json:"phase"`
	PhaseEndsAt *time.Time        `json:"phaseEndsAt,omitempty"`
}

// GuessMade is a guesser's full guess record, correctness included.
// Correctness is computed by the guesser's own client; nothing verifies
// it (known trust gap of the serverless design).
type GuessMade models.Guess

// ScoreDelta names a player and the points to add to their score.
type ScoreDelta struct {
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
}

// Reveal is broadcast by the host at the end of guessing. The guess
// list replaces local state wholesale; scores are applied as
// increments.
type Reveal struct {
	Guesses []models.Guess `json:"guesses"`
	Scores  []ScoreDelta   `json:"scores"`
}

// GameEnded moves the room to finished.
type GameEnded struct{}

// HostChanged reassigns the host flag across all players.
type HostChanged struct {
	NewHostID string `json:"newHostId"`
}

func (PlayerJoined) EventType() Type  { return TypePlayerJoined }
func (PlayerLeft) EventType() Type    { return TypePlayerLeft }
func (GameStarted) EventType() Type   { return TypeGameStarted }
func (NewRound) EventType() Type      { return TypeNewRound }
func (LinkSubmitted) EventType() Type { return TypeLinkSubmitted }
func (PhaseChange) EventType() Type   { return TypePhaseChange }
func (GuessMade) EventType() Type     { return TypeGuessMade }
func (Reveal) EventType() Type        { return TypeReveal }
func (GameEnded) EventType() Type     { return TypeGameEnded }
func (HostChanged) EventType() Type   { return TypeHostChanged }

// Decode unmarshals a raw broadcast payload into its typed event.
// Unknown event names return an error; callers on a shared channel may
// choose to skip those rather than fail.
func Decode(name string, raw json.RawMessage) (Event, error) {
	switch Type(name) {
	case TypePlayerJoined:
		var ev PlayerJoined
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypePlayerLeft:
		var ev PlayerLeft
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypeGameStarted:
		var ev GameStarted
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypeNewRound:
		var ev NewRound
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypeLinkSubmitted:
		var ev LinkSubmitted
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypePhaseChange:
		var ev PhaseChange
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypeGuessMade:
		var ev GuessMade
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypeReveal:
		var ev Reveal
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypeGameEnded:
		var ev GameEnded
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	case TypeHostChanged:
		var ev HostChanged
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", name)
	}
}
