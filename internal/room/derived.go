// internal/room/derived.go
package room

import "github.com/ernsttxbias-web/partyhub/internal/models"

// Derived values are pure functions of the synchronized state, so every
// consumer computes them the same way instead of re-deriving inline.

// IsHost reports whether playerID is the room's host.
func IsHost(room *models.Room, playerID string) bool {
	return room != nil && playerID != "" && room.HostID == playerID
}

// IsPicker reports whether playerID is the active round's picker.
func IsPicker(round *models.Round, playerID string) bool {
	return round != nil && playerID != "" && round.PickerID == playerID
}

// HasGuessed reports whether playerID already guessed this round.
func HasGuessed(guesses []models.Guess, playerID string) bool {
	for _, g := range guesses {
		if g.PlayerID == playerID {
			return true
		}
	}
	return false
}
