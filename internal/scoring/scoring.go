// internal/scoring/scoring.go

// Package scoring converts raw guesses into speed scores and points.
// Everything here is pure: identical inputs give identical outputs.
package scoring

import (
	"math"

	"github.com/ernsttxbias-web/partyhub/internal/models"
)

// BasePoints is awarded for any correct guess; up to MaxSpeedBonus more
// is added linearly by how early the guess landed in the phase window.
const (
	BasePoints    = 10
	MaxSpeedBonus = 10
)

// GuessResult is the scored projection of a single guess.
type GuessResult struct {
	PlayerID        string `json:"playerId"`
	GuessedPlayerID string `json:"guessedPlayerId"`
	IsCorrect       bool   `json:"isCorrect"`
	Timestamp       int64  `json:"timestamp"`
	// Speed is 0-100, where 100 means the guess landed the instant the
	// phase opened.
	Speed  int `json:"speed"`
	Points int `json:"points"`
}

// SpeedScore rates how early a guess landed within the guessing window.
// A guess at phaseStart scores 100; at or after phaseStart+duration it
// scores 0, never negative. Times are wall-clock milliseconds.
func SpeedScore(phaseStart, guessTime, phaseDuration int64) int {
	if phaseDuration <= 0 {
		return 0
	}
	elapsed := float64(guessTime - phaseStart)
	ratio := math.Max(0, 1-elapsed/float64(phaseDuration))
	return int(math.Round(ratio * 100))
}

// Points awards 0 for an incorrect guess, otherwise BasePoints plus a
// speed bonus scaled from the 0-100 speed score.
func Points(isCorrect bool, speedScore int) int {
	if !isCorrect {
		return 0
	}
	bonus := int(math.Round(float64(speedScore) / 100 * MaxSpeedBonus))
	return BasePoints + bonus
}

// ProcessGuesses maps every guess to its scored result. Safe to call
// repeatedly; it has no side effects.
func ProcessGuesses(guesses []models.Guess, phaseStart, phaseDuration int64) []GuessResult {
	results := make([]GuessResult, 0, len(guesses))
	for _, g := range guesses {
		speed := SpeedScore(phaseStart, g.Timestamp, phaseDuration)
		results = append(results, GuessResult{
			PlayerID:        g.PlayerID,
			GuessedPlayerID: g.GuessedPlayerID,
			IsCorrect:       g.IsCorrect,
			Timestamp:       g.Timestamp,
			Speed:           speed,
			Points:          Points(g.IsCorrect, speed),
		})
	}
	return results
}

// ScoreDeltas collapses scored results into per-player point
// increments, dropping zero-point entries.
func ScoreDeltas(results []GuessResult) map[string]int {
	deltas := make(map[string]int)
	for _, r := range results {
		if r.Points > 0 {
			deltas[r.PlayerID] += r.Points
		}
	}
	return deltas
}
