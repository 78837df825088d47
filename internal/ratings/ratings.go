// Package ratings derives per-team attack/defense strength coefficients
// from season goal statistics, optionally weighted by recent form.
package ratings

import (
	"errors"
	"fmt"

	"github.com/lmoroni/dropzone/internal/league"
)

// Form weighting: season-long performance carries 70%, the last-5 rate 30%.
const (
	formBaseWeight   = 0.7
	formRecentWeight = 0.3
)

// Calculate computes ratings for every team in the stats mapping, normalized
// so that 1.0 is the league average on both axes. matchesPlayed is the shared
// denominator for per-match rates; it changes every round and must come from
// the snapshot, never a constant.
//
// When form contains a record for a team, its ratings are scaled by
// formMultiplier = 0.7 + 0.3 × (recent-ppg / season-ppg): attack multiplied,
// defense divided, so good recent form raises scoring and strengthens
// defense. Teams with zero season points keep their raw ratios (the
// multiplier would divide by zero).
//
// The result is deterministic: no randomness is consumed here.
func Calculate(teams map[string]league.TeamStats, form map[string][]int, matchesPlayed int) (map[string]league.Rating, error) {
	if matchesPlayed < 1 {
		return nil, fmt.Errorf("matches played must be at least 1, got %d", matchesPlayed)
	}
	if len(teams) == 0 {
		return nil, errors.New("no team statistics provided")
	}

	var totalGF, totalGA int
	for _, stats := range teams {
		totalGF += stats.GoalsFor
		totalGA += stats.GoalsAgainst
	}
	avgGF := float64(totalGF) / float64(len(teams))
	avgGA := float64(totalGA) / float64(len(teams))
	if avgGF == 0 || avgGA == 0 {
		return nil, errors.New("league goal averages are zero, cannot normalize ratings")
	}

	mp := float64(matchesPlayed)
	result := make(map[string]league.Rating, len(teams))
	for name, stats := range teams {
		att := (float64(stats.GoalsFor) / mp) / (avgGF / mp)
		def := (float64(stats.GoalsAgainst) / mp) / (avgGA / mp)

		if record, ok := form[name]; ok && len(record) > 0 {
			if m := formMultiplier(stats.Points, record, mp); m > 0 {
				att *= m
				def /= m
			}
		}

		result[name] = league.Rating{Attack: att, Defense: def}
	}
	return result, nil
}

// formMultiplier returns the rating adjustment for a team's recent form, or
// 0 when the adjustment must be skipped (zero season points-per-game).
func formMultiplier(seasonPoints int, record []int, matchesPlayed float64) float64 {
	seasonPPG := float64(seasonPoints) / matchesPlayed
	if seasonPPG <= 0 {
		return 0
	}
	recent := 0
	for _, pts := range record {
		recent += pts
	}
	recentPPG := float64(recent) / float64(league.FormWindow)
	return formBaseWeight + formRecentWeight*(recentPPG/seasonPPG)
}
