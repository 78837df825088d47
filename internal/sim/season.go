package sim

import (
	"math/rand"
	"sort"

	"github.com/lmoroni/dropzone/internal/league"
)

// TrialResult is the outcome of one fully replayed season.
type TrialResult struct {
	// Relegated holds the bottom teams in final table order (worst last).
	Relegated []string
	// FinalPoints maps every team to its end-of-season points total.
	FinalPoints map[string]int
	// SurvivalPoints is the points total of the lowest-placed safe team.
	SurvivalPoints int
}

// standingsRow is one team's mutable state within a single trial.
type standingsRow struct {
	name     string
	points   int
	goalDiff int
}

// ReplaySeason replays every remaining fixture once and resolves the final
// table. It is a pure function of its inputs: the working table is a fresh
// copy of the baseline standings, ratings are read-only, and all randomness
// comes from a private source seeded with seed, so identical inputs and seed
// produce identical results.
//
// Inputs are assumed validated (see Request.validate): every fixture team
// has stats and a rating, and len(teams) > p.RelegationSlots.
func ReplaySeason(teams map[string]league.TeamStats, fixtures []league.Fixture, teamRatings map[string]league.Rating, p Params, seed int64) TrialResult {
	rng := rand.New(rand.NewSource(seed))

	// Deterministic row order regardless of map iteration.
	names := make([]string, 0, len(teams))
	for name := range teams {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]*standingsRow, len(names))
	byName := make(map[string]*standingsRow, len(names))
	for i, name := range names {
		stats := teams[name]
		row := &standingsRow{name: name, points: stats.Points, goalDiff: stats.GoalDifference()}
		rows[i] = row
		byName[name] = row
	}

	for _, f := range fixtures {
		home, away := byName[f.Home], byName[f.Away]
		homeGoals, awayGoals := PlayMatch(rng, teamRatings[f.Home], teamRatings[f.Away], p)

		switch {
		case homeGoals > awayGoals:
			home.points += p.PointsWin
			away.points += p.PointsLoss
		case awayGoals > homeGoals:
			away.points += p.PointsWin
			home.points += p.PointsLoss
		default:
			home.points += p.PointsDraw
			away.points += p.PointsDraw
		}
		home.goalDiff += homeGoals - awayGoals
		away.goalDiff += awayGoals - homeGoals
	}

	// Points desc, goal difference desc, name asc. The name tiebreak keeps
	// the order fully deterministic; real leagues use head-to-head rules
	// this engine does not model.
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.points != b.points {
			return a.points > b.points
		}
		if a.goalDiff != b.goalDiff {
			return a.goalDiff > b.goalDiff
		}
		return a.name < b.name
	})

	finalPoints := make(map[string]int, len(rows))
	for _, row := range rows {
		finalPoints[row.name] = row.points
	}

	cut := len(rows) - p.RelegationSlots
	relegated := make([]string, p.RelegationSlots)
	for i, row := range rows[cut:] {
		relegated[i] = row.name
	}

	return TrialResult{
		Relegated:      relegated,
		FinalPoints:    finalPoints,
		SurvivalPoints: rows[cut-1].points,
	}
}
