// Package league defines the core domain entities: team statistics, form
// records, fixtures, and the weekly league snapshot the simulator runs on.
package league

import (
	"errors"
	"fmt"
	"time"
)

// FormWindow is the number of recent matches a form record covers.
const FormWindow = 5

// TeamStats holds one team's season-to-date statistics.
type TeamStats struct {
	Points       int `json:"points"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

// GoalDifference returns GF - GA.
func (t TeamStats) GoalDifference() int {
	return t.GoalsFor - t.GoalsAgainst
}

// Fixture is one unplayed match, ordered (home, away).
type Fixture struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Rating holds a team's derived strength coefficients.
// 1.0 means league average on both axes. Defense multiplies the opponent's
// expected goals, so lower is stronger.
type Rating struct {
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
}

// Snapshot is the full immutable input for one simulation batch: the league
// table after Matchday rounds, optional last-5 form per team, and the
// remaining fixture list. Snapshots are replaced weekly as results come in.
type Snapshot struct {
	League    string               `json:"league"`
	Season    string               `json:"season"`
	Matchday  int                  `json:"matchday"`
	Teams     map[string]TeamStats `json:"teams"`
	Form      map[string][]int     `json:"form,omitempty"`
	Fixtures  []Fixture            `json:"fixtures"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Validate checks snapshot field constraints. A snapshot that fails
// validation must never reach the simulation engine: an unknown fixture team
// or a zero matchday would corrupt probabilities without a visible symptom.
func (s *Snapshot) Validate() error {
	if s.League == "" {
		return errors.New("league name must not be empty")
	}
	if s.Matchday < 1 {
		return errors.New("matchday must be at least 1")
	}
	if len(s.Teams) == 0 {
		return errors.New("snapshot must contain at least one team")
	}
	for name, stats := range s.Teams {
		if name == "" {
			return errors.New("team name must not be empty")
		}
		if stats.Points < 0 {
			return fmt.Errorf("team %s: points must not be negative", name)
		}
		if stats.GoalsFor < 0 {
			return fmt.Errorf("team %s: goals for must not be negative", name)
		}
		if stats.GoalsAgainst < 0 {
			return fmt.Errorf("team %s: goals against must not be negative", name)
		}
	}
	for name, record := range s.Form {
		if _, ok := s.Teams[name]; !ok {
			return fmt.Errorf("form record references unknown team %s", name)
		}
		if len(record) > FormWindow {
			return fmt.Errorf("team %s: form record has %d entries, max %d", name, len(record), FormWindow)
		}
		for i, pts := range record {
			if pts != 0 && pts != 1 && pts != 3 {
				return fmt.Errorf("team %s: form entry %d must be 0, 1 or 3, got %d", name, i, pts)
			}
		}
	}
	for i, f := range s.Fixtures {
		if f.Home == "" || f.Away == "" {
			return fmt.Errorf("fixture %d: team names must not be empty", i)
		}
		if f.Home == f.Away {
			return fmt.Errorf("fixture %d: %s cannot play itself", i, f.Home)
		}
		if _, ok := s.Teams[f.Home]; !ok {
			return fmt.Errorf("fixture %d references unknown home team %s", i, f.Home)
		}
		if _, ok := s.Teams[f.Away]; !ok {
			return fmt.Errorf("fixture %d references unknown away team %s", i, f.Away)
		}
	}
	return nil
}

// TeamNames returns the snapshot's team names in unspecified order.
func (s *Snapshot) TeamNames() []string {
	names := make([]string, 0, len(s.Teams))
	for name := range s.Teams {
		names = append(names, name)
	}
	return names
}
