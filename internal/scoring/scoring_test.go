// internal/scoring/scoring_test.go
package scoring

import (
	"testing"

	"github.com/ernsttxbias-web/partyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsIncorrectAlwaysZero(t *testing.T) {
	for _, speed := range []int{0, 1, 50, 99, 100} {
		assert.Equal(t, 0, Points(false, speed), "speed %d", speed)
	}
}

func TestPointsCorrectScaling(t *testing.T) {
	assert.Equal(t, 10, Points(true, 0))
	assert.Equal(t, 15, Points(true, 50))
	assert.Equal(t, 20, Points(true, 100))
}

func TestSpeedScoreBoundaries(t *testing.T) {
	const start, duration = int64(1_000_000), int64(30_000)

	assert.Equal(t, 100, SpeedScore(start, start, duration), "guess at phase start")
	assert.Equal(t, 0, SpeedScore(start, start+duration, duration), "guess at deadline")
	assert.Equal(t, 0, SpeedScore(start, start+duration+5_000, duration), "late guess never negative")
	assert.Equal(t, 50, SpeedScore(start, start+duration/2, duration), "midpoint")
}

func TestSpeedScoreZeroDuration(t *testing.T) {
	assert.Equal(t, 0, SpeedScore(0, 0, 0))
}

func TestProcessGuesses(t *testing.T) {
	const start, duration = int64(0), int64(30_000)
	guesses := []models.Guess{
		{PlayerID: "p1", GuessedPlayerID: "picker", IsCorrect: true, Timestamp: 0},
		{PlayerID: "p2", GuessedPlayerID: "p3", IsCorrect: false, Timestamp: 29_999},
	}

	results := ProcessGuesses(guesses, start, duration)
	require.Len(t, results, 2)

	assert.Equal(t, 20, results[0].Points, "instant correct guess earns max points")
	assert.Equal(t, 100, results[0].Speed)
	assert.Equal(t, 0, results[1].Points, "incorrect guess earns nothing")

	// Deterministic: recomputing yields identical output.
	assert.Equal(t, results, ProcessGuesses(guesses, start, duration))
}

func TestScoreDeltas(t *testing.T) {
	deltas := ScoreDeltas([]GuessResult{
		{PlayerID: "p1", Points: 20},
		{PlayerID: "p2", Points: 0},
		{PlayerID: "p3", Points: 12},
	})
	assert.Equal(t, map[string]int{"p1": 20, "p3": 12}, deltas)
}

func TestComputeStatsAndAwards(t *testing.T) {
	players := []models.Player{
		{ID: "a", Name: "Ana", Score: 35},
		{ID: "b", Name: "Ben", Score: 12},
		{ID: "c", Name: "Cam", Score: 0},
	}
	history := []RoundRecord{
		{
			RoundNumber: 1, PickerID: "c", PhaseStart: 0, GuessWindow: 30_000,
			Results: []GuessResult{
				{PlayerID: "a", IsCorrect: true, Timestamp: 2_000, Points: 19},
				{PlayerID: "b", IsCorrect: false, Timestamp: 10_000},
			},
		},
		{
			RoundNumber: 2, PickerID: "a", PhaseStart: 100_000, GuessWindow: 30_000,
			Results: []GuessResult{
				{PlayerID: "b", IsCorrect: true, Timestamp: 112_000, Points: 16},
				{PlayerID: "c", IsCorrect: false, Timestamp: 120_000},
			},
		},
	}

	stats := ComputeStats(players, history)
	require.Len(t, stats, 3)

	ana := stats[0]
	assert.Equal(t, 1, ana.CorrectGuesses)
	assert.Equal(t, 1, ana.TotalGuesses)
	assert.Equal(t, 1, ana.TimesAsPicker)
	assert.Equal(t, 1, ana.TimesFooledOthers, "Cam guessed wrong while Ana picked")
	assert.InDelta(t, 2_000, ana.AvgGuessTimeMs, 0.001)

	cam := stats[2]
	assert.Equal(t, 1, cam.TimesAsPicker)
	assert.Equal(t, 1, cam.TimesFooledOthers)

	awards := ComputeAwards(stats)
	got := make(map[AwardType]string)
	for _, a := range awards {
		got[a.Type] = a.PlayerID
	}
	assert.Equal(t, "a", got[AwardMostCorrect], "tie on correct guesses goes to roster order")
	assert.Equal(t, "a", got[AwardFastest])
	assert.Equal(t, "a", got[AwardTrickiest], "tie on fooled count goes to roster order")
}
