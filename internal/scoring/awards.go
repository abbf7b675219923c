// internal/scoring/awards.go
package scoring

import "github.com/ernsttxbias-web/partyhub/internal/models"

// RoundRecord is the scored history of one finished round, kept so
// end-of-game stats can be computed without replaying events.
type RoundRecord struct {
	RoundNumber int
	PickerID    string
	Results     []GuessResult
	// GuessWindow is the guessing phase duration in ms, used to turn
	// speed scores back into elapsed times for the fastest award.
	GuessWindow int64
	PhaseStart  int64
}

// PlayerStats aggregates one player's performance across a game.
type PlayerStats struct {
	PlayerID          string  `json:"playerId"`
	Name              string  `json:"name"`
	AvatarID          int     `json:"avatarId"`
	TotalScore        int     `json:"totalScore"`
	CorrectGuesses    int     `json:"correctGuesses"`
	TotalGuesses      int     `json:"totalGuesses"`
	TimesAsPicker     int     `json:"timesAsPicker"`
	TimesFooledOthers int     `json:"timesFooledOthers"`
	AvgGuessTimeMs    float64 `json:"avgGuessTime"`
}

// AwardType names an end-of-game award.
type AwardType string

const (
	AwardMostCorrect AwardType = "most_correct"
	AwardFastest     AwardType = "fastest"
	AwardTrickiest   AwardType = "trickiest"
)

// Award marks a player out for a game-level achievement. Value is the
// metric that won it (count, average ms, or fooled count).
type Award struct {
	Type     AwardType `json:"type"`
	PlayerID string    `json:"playerId"`
	Value    float64   `json:"value"`
}

// ComputeStats folds a game's round history into per-player aggregates.
// Players appear in the same order as the roster.
func ComputeStats(players []models.Player, history []RoundRecord) []PlayerStats {
	byID := make(map[string]*PlayerStats, len(players))
	stats := make([]PlayerStats, len(players))
	for i, p := range players {
		stats[i] = PlayerStats{PlayerID: p.ID, Name: p.Name, AvatarID: p.AvatarID, TotalScore: p.Score}
		byID[p.ID] = &stats[i]
	}

	guessTimeSums := make(map[string]int64)
	for _, round := range history {
		if ps, ok := byID[round.PickerID]; ok {
			ps.TimesAsPicker++
		}
		for _, r := range round.Results {
			ps, ok := byID[r.PlayerID]
			if !ok {
				continue
			}
			ps.TotalGuesses++
			if r.IsCorrect {
				ps.CorrectGuesses++
			} else if picker, ok := byID[round.PickerID]; ok {
				picker.TimesFooledOthers++
			}
			guessTimeSums[r.PlayerID] += r.Timestamp - round.PhaseStart
		}
	}
	for i := range stats {
		if stats[i].TotalGuesses > 0 {
			stats[i].AvgGuessTimeMs = float64(guessTimeSums[stats[i].PlayerID]) / float64(stats[i].TotalGuesses)
		}
	}
	return stats
}

// ComputeAwards derives game awards from player stats: most correct
// guesses, fastest average guess, and trickiest picker (fooled the most
// players). Players with no qualifying metric win nothing; ties go to
// roster order.
func ComputeAwards(stats []PlayerStats) []Award {
	var awards []Award

	if best := maxBy(stats, func(s PlayerStats) float64 { return float64(s.CorrectGuesses) }); best != nil && best.CorrectGuesses > 0 {
		awards = append(awards, Award{Type: AwardMostCorrect, PlayerID: best.PlayerID, Value: float64(best.CorrectGuesses)})
	}

	var fastest *PlayerStats
	for i := range stats {
		s := &stats[i]
		if s.TotalGuesses == 0 {
			continue
		}
		if fastest == nil || s.AvgGuessTimeMs < fastest.AvgGuessTimeMs {
			fastest = s
		}
	}
	if fastest != nil {
		awards = append(awards, Award{Type: AwardFastest, PlayerID: fastest.PlayerID, Value: fastest.AvgGuessTimeMs})
	}

	if best := maxBy(stats, func(s PlayerStats) float64 { return float64(s.TimesFooledOthers) }); best != nil && best.TimesFooledOthers > 0 {
		awards = append(awards, Award{Type: AwardTrickiest, PlayerID: best.PlayerID, Value: float64(best.TimesFooledOthers)})
	}
	return awards
}

func maxBy(stats []PlayerStats, metric func(PlayerStats) float64) *PlayerStats {
	var best *PlayerStats
	for i := range stats {
		if best == nil || metric(stats[i]) > metric(*best) {
			best = &stats[i]
		}
	}
	return best
}
