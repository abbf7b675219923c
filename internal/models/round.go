// internal/models/round.go
package models

import "time"

// RoundPhase is the strictly ordered phase of a round. Phases never
// move backward; a new round starts over at picking.
type RoundPhase string

const (
	PhasePicking  RoundPhase = "picking"
	PhaseWatching RoundPhase = "watching"
	PhaseGuessing RoundPhase = "guessing"
	PhaseReveal   RoundPhase = "reveal"
	PhaseDone     RoundPhase = "done"
)

// phaseOrder maps phases to their position for ordering checks.
var phaseOrder = map[RoundPhase]int{
	PhasePicking:  0,
	PhaseWatching: 1,
	PhaseGuessing: 2,
	PhaseReveal:   3,
	PhaseDone:     4,
}

// Before reports whether p comes strictly before q in the phase order.
func (p RoundPhase) Before(q RoundPhase) bool {
	return phaseOrder[p] < phaseOrder[q]
}

// Valid reports whether p is a known phase.
func (p RoundPhase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// Round is one play of the picker/guessers cycle. At most one round is
// active per room; a new round replaces the prior one.
type Round struct {
	ID          string     `json:"id"`
	RoundNumber int        `json:"roundNumber"`
	PickerID    string     `json:"pickerId"`
	TikTokURL   string     `json:"tiktokUrl,omitempty"`
	Phase       RoundPhase `json:"phase"`
	// PhaseEndsAt is the absolute deadline for the current phase.
	// Nil means untimed.
	PhaseEndsAt *time.Time `json:"phaseEndsAt,omitempty"`
	// GuessingStartedAt is the wall-clock ms stamped by each receiver
	// on entry to the guessing phase. Only used for speed scoring.
	GuessingStartedAt int64 `json:"guessingStartedAt,omitempty"`
}

// Guess records a single player's guess for the active round. Guesses
// are created once and never mutated; the set is cleared on new_round.
type Guess struct {
	PlayerID        string `json:"playerId"`
	GuessedPlayerID string `json:"guessedPlayerId"`
	IsCorrect       bool   `json:"isCorrect"`
	Timestamp       int64  `json:"timestamp"`
}
