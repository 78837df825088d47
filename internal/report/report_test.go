package report

import (
	"strings"
	"testing"

	"github.com/lmoroni/dropzone/internal/league"
	"github.com/lmoroni/dropzone/internal/sim"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		prob float64
		want string
	}{
		{95, "CRITICAL"},
		{90.0001, "CRITICAL"},
		{90, "HIGH RISK"},
		{60, "HIGH RISK"},
		{50, "AT RISK"},
		{21, "AT RISK"},
		{20, "UNSAFE"},
		{5.1, "UNSAFE"},
		{5, "SAFE"},
		{0, "SAFE"},
	}
	for _, tt := range tests {
		if got := Status(tt.prob); got != tt.want {
			t.Errorf("Status(%g) = %q, want %q", tt.prob, got, tt.want)
		}
	}
}

func reportSnapshot() *league.Snapshot {
	return &league.Snapshot{
		League:   "Serie A",
		Season:   "2025/26",
		Matchday: 24,
		Teams: map[string]league.TeamStats{
			"Bologna": {Points: 55, GoalsFor: 40, GoalsAgainst: 22},
			"Lecce":   {Points: 21, GoalsFor: 15, GoalsAgainst: 31},
			"Pisa":    {Points: 15, GoalsFor: 19, GoalsAgainst: 40},
			"Verona":  {Points: 13, GoalsFor: 14, GoalsAgainst: 35},
		},
	}
}

func reportAggregates() (base, withForm *sim.Aggregate) {
	base = &sim.Aggregate{
		Trials:    1000,
		Completed: 1000,
		RelegationCounts: map[string]int{
			"Bologna": 0,
			"Lecce":   300,
			"Pisa":    700,
			"Verona":  850,
		},
		AvgPoints: map[string]float64{
			"Bologna": 72.4, "Lecce": 34.1, "Pisa": 29.8, "Verona": 27.5,
		},
		AvgSurvivalPoints:    36.8,
		SurvivalPointsStdDev: 3.1,
	}
	withForm = &sim.Aggregate{
		Trials:    1000,
		Completed: 1000,
		RelegationCounts: map[string]int{
			"Bologna": 0,
			"Lecce":   250,
			"Pisa":    780,
			"Verona":  820,
		},
		AvgPoints: map[string]float64{
			"Bologna": 73.0, "Lecce": 35.2, "Pisa": 28.6, "Verona": 27.9,
		},
		AvgSurvivalPoints:    37.1,
		SurvivalPointsStdDev: 3.0,
	}
	return base, withForm
}

func TestBuildRows(t *testing.T) {
	snap := reportSnapshot()
	base, withForm := reportAggregates()

	rows := BuildRows(snap, base, withForm, 40)

	// Bologna sits above the safe cutoff and never appears
	for _, r := range rows {
		if r.Team == "Bologna" {
			t.Error("safe team Bologna included in rows")
		}
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	// Sorted by with-form probability, highest risk first
	if rows[0].Team != "Verona" || rows[1].Team != "Pisa" || rows[2].Team != "Lecce" {
		t.Errorf("row order = %s, %s, %s", rows[0].Team, rows[1].Team, rows[2].Team)
	}

	pisa := rows[1]
	if pisa.BaselineProb != 70.0 {
		t.Errorf("Pisa baseline = %f, want 70.0", pisa.BaselineProb)
	}
	if pisa.FormProb != 78.0 {
		t.Errorf("Pisa with form = %f, want 78.0", pisa.FormProb)
	}
	if pisa.Change != 8.0 {
		t.Errorf("Pisa change = %f, want 8.0", pisa.Change)
	}
	if pisa.Status != "HIGH RISK" {
		t.Errorf("Pisa status = %q, want HIGH RISK", pisa.Status)
	}
	if pisa.AvgPoints != 28.6 {
		t.Errorf("Pisa avg points = %f, want the with-form value 28.6", pisa.AvgPoints)
	}
}

func TestBuildRows_BaselineOnly(t *testing.T) {
	snap := reportSnapshot()
	base, _ := reportAggregates()

	rows := BuildRows(snap, base, nil, 40)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Team != "Verona" {
		t.Errorf("highest baseline risk is %s, want Verona", rows[0].Team)
	}
	for _, r := range rows {
		if r.FormProb != 0 || r.Change != 0 {
			t.Errorf("baseline-only row %s carries form fields: %+v", r.Team, r)
		}
		if r.Status != Status(r.BaselineProb) {
			t.Errorf("row %s status %q does not match baseline probability", r.Team, r.Status)
		}
	}
}

func TestBuildRows_HidesZeroProbability(t *testing.T) {
	snap := reportSnapshot()
	base, withForm := reportAggregates()
	// Lecce never relegated in either run: hidden despite being under the cutoff
	base.RelegationCounts["Lecce"] = 0
	withForm.RelegationCounts["Lecce"] = 0

	rows := BuildRows(snap, base, withForm, 40)
	for _, r := range rows {
		if r.Team == "Lecce" {
			t.Error("zero-probability team Lecce included in rows")
		}
	}
}

func TestRender(t *testing.T) {
	snap := reportSnapshot()
	base, withForm := reportAggregates()

	var buf strings.Builder
	if err := Render(&buf, snap, base, withForm, 40); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Serie A 2025/26",
		"matchday 24",
		"BASELINE",
		"WITH FORM",
		"Verona",
		"82.00%",
		"Survival threshold: 37.1 pts",
		"1000 trials",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "WARNING") {
		t.Errorf("complete run rendered a partial warning:\n%s", out)
	}
	if strings.Contains(out, "Bologna") {
		t.Errorf("safe team rendered:\n%s", out)
	}
}

func TestRender_PartialWarning(t *testing.T) {
	snap := reportSnapshot()
	base, _ := reportAggregates()
	base.Completed = 640
	base.Partial = true

	var buf strings.Builder
	if err := Render(&buf, snap, base, nil, 40); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "WARNING") || !strings.Contains(out, "640 of 1000") {
		t.Errorf("partial warning missing:\n%s", out)
	}
}
