package ratings

import (
	"math"
	"testing"

	"github.com/lmoroni/dropzone/internal/league"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestCalculate_AverageTeamIsUnity(t *testing.T) {
	// Every team identical, so every team sits exactly at the league average.
	teams := map[string]league.TeamStats{
		"A": {Points: 20, GoalsFor: 24, GoalsAgainst: 24},
		"B": {Points: 20, GoalsFor: 24, GoalsAgainst: 24},
		"C": {Points: 20, GoalsFor: 24, GoalsAgainst: 24},
	}
	got, err := Calculate(teams, nil, 24)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	for name, r := range got {
		if !almostEqual(r.Attack, 1.0) || !almostEqual(r.Defense, 1.0) {
			t.Errorf("team %s: got ratings %+v, want 1.0/1.0", name, r)
		}
	}
}

func TestCalculate_RatiosAgainstLeagueAverage(t *testing.T) {
	// League averages: GF (30+10)/2 = 20, GA (15+25)/2 = 20.
	teams := map[string]league.TeamStats{
		"Strong": {Points: 40, GoalsFor: 30, GoalsAgainst: 15},
		"Weak":   {Points: 10, GoalsFor: 10, GoalsAgainst: 25},
	}
	got, err := Calculate(teams, nil, 20)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !almostEqual(got["Strong"].Attack, 1.5) {
		t.Errorf("Strong attack = %f, want 1.5", got["Strong"].Attack)
	}
	if !almostEqual(got["Strong"].Defense, 0.75) {
		t.Errorf("Strong defense = %f, want 0.75", got["Strong"].Defense)
	}
	if !almostEqual(got["Weak"].Attack, 0.5) {
		t.Errorf("Weak attack = %f, want 0.5", got["Weak"].Attack)
	}
	if !almostEqual(got["Weak"].Defense, 1.25) {
		t.Errorf("Weak defense = %f, want 1.25", got["Weak"].Defense)
	}
}

func TestCalculate_FormAdjustment(t *testing.T) {
	teams := map[string]league.TeamStats{
		"Hot":  {Points: 24, GoalsFor: 24, GoalsAgainst: 24},
		"Cold": {Points: 24, GoalsFor: 24, GoalsAgainst: 24},
	}
	// Hot: season ppg 1.0, recent ppg 3.0 -> multiplier 0.7 + 0.3*3 = 1.6.
	// Cold: recent ppg 0.0 -> multiplier 0.7.
	form := map[string][]int{
		"Hot":  {3, 3, 3, 3, 3},
		"Cold": {0, 0, 0, 0, 0},
	}
	got, err := Calculate(teams, form, 24)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !almostEqual(got["Hot"].Attack, 1.6) {
		t.Errorf("Hot attack = %f, want 1.6", got["Hot"].Attack)
	}
	if !almostEqual(got["Hot"].Defense, 1/1.6) {
		t.Errorf("Hot defense = %f, want %f", got["Hot"].Defense, 1/1.6)
	}
	if !almostEqual(got["Cold"].Attack, 0.7) {
		t.Errorf("Cold attack = %f, want 0.7", got["Cold"].Attack)
	}
	if !almostEqual(got["Cold"].Defense, 1/0.7) {
		t.Errorf("Cold defense = %f, want %f", got["Cold"].Defense, 1/0.7)
	}
}

func TestCalculate_FormSkippedForZeroSeasonPoints(t *testing.T) {
	teams := map[string]league.TeamStats{
		"Winless": {Points: 0, GoalsFor: 8, GoalsAgainst: 24},
		"Other":   {Points: 30, GoalsFor: 24, GoalsAgainst: 8},
	}
	form := map[string][]int{
		"Winless": {1, 1, 1, 1, 1},
	}
	withForm, err := Calculate(teams, form, 16)
	if err != nil {
		t.Fatalf("Calculate with form: %v", err)
	}
	withoutForm, err := Calculate(teams, nil, 16)
	if err != nil {
		t.Fatalf("Calculate without form: %v", err)
	}
	if withForm["Winless"] != withoutForm["Winless"] {
		t.Errorf("form adjustment applied despite zero season points: %+v vs %+v",
			withForm["Winless"], withoutForm["Winless"])
	}
}

func TestCalculate_Errors(t *testing.T) {
	teams := map[string]league.TeamStats{
		"A": {Points: 10, GoalsFor: 12, GoalsAgainst: 14},
	}
	if _, err := Calculate(teams, nil, 0); err == nil {
		t.Error("expected error for zero matches played")
	}
	if _, err := Calculate(nil, nil, 10); err == nil {
		t.Error("expected error for empty team map")
	}

	goalless := map[string]league.TeamStats{
		"A": {Points: 3, GoalsFor: 0, GoalsAgainst: 5},
		"B": {Points: 3, GoalsFor: 0, GoalsAgainst: 5},
	}
	if _, err := Calculate(goalless, nil, 10); err == nil {
		t.Error("expected error when league scored zero goals")
	}
}
