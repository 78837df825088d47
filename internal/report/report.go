// Package report renders simulation aggregates for humans. The engine only
// emits counts and sums; every percentage, label, and column here is derived
// presentation.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lmoroni/dropzone/internal/league"
	"github.com/lmoroni/dropzone/internal/sim"
)

// Probabilities below this (in percent) are noise at typical trial counts
// and are hidden from the table.
const displayFloor = 0.01

// Row is one team's line in the rendered comparison table.
type Row struct {
	Team         string
	BaselineProb float64
	FormProb     float64
	Change       float64
	AvgPoints    float64
	Status       string
}

// Status maps a relegation probability (percent) to a risk label.
func Status(prob float64) string {
	switch {
	case prob > 90:
		return "CRITICAL"
	case prob > 50:
		return "HIGH RISK"
	case prob > 20:
		return "AT RISK"
	case prob > 5:
		return "UNSAFE"
	default:
		return "SAFE"
	}
}

// BuildRows derives the table rows from a baseline aggregate and an optional
// with-form aggregate. Teams already above safeCutoff points are omitted, as
// are teams whose probability rounds to zero in both runs. Rows are sorted
// by descending risk (with-form probability when available).
func BuildRows(snap *league.Snapshot, base, withForm *sim.Aggregate, safeCutoff int) []Row {
	var rows []Row
	for name, stats := range snap.Teams {
		if stats.Points > safeCutoff {
			continue
		}

		row := Row{
			Team:         name,
			BaselineProb: base.RelegationProbability(name),
			AvgPoints:    base.AvgPoints[name],
		}
		if withForm != nil {
			row.FormProb = withForm.RelegationProbability(name)
			row.Change = row.FormProb - row.BaselineProb
			row.AvgPoints = withForm.AvgPoints[name]
			row.Status = Status(row.FormProb)
		} else {
			row.Status = Status(row.BaselineProb)
		}

		if row.BaselineProb <= displayFloor && row.FormProb <= displayFloor {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if withForm != nil && a.FormProb != b.FormProb {
			return a.FormProb > b.FormProb
		}
		if a.BaselineProb != b.BaselineProb {
			return a.BaselineProb > b.BaselineProb
		}
		return a.Team < b.Team
	})
	return rows
}

// Render writes the end-of-season projection table to w.
func Render(w io.Writer, snap *league.Snapshot, base, withForm *sim.Aggregate, safeCutoff int) error {
	rows := BuildRows(snap, base, withForm, safeCutoff)

	title := fmt.Sprintf("%s %s: relegation probabilities after matchday %d",
		snap.League, snap.Season, snap.Matchday)
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	rule := "---------------------------------------------------------------------------"
	fmt.Fprintln(w, rule)

	if withForm != nil {
		fmt.Fprintf(w, "%-15s | %9s | %9s | %8s | %8s | %s\n",
			"TEAM", "BASELINE", "WITH FORM", "CHANGE", "AVG PTS", "STATUS")
		fmt.Fprintln(w, rule)
		for _, r := range rows {
			fmt.Fprintf(w, "%-15s | %8.2f%% | %8.2f%% | %+7.2f%% | %8.1f | %s\n",
				r.Team, r.BaselineProb, r.FormProb, r.Change, r.AvgPoints, r.Status)
		}
	} else {
		fmt.Fprintf(w, "%-15s | %9s | %8s | %s\n", "TEAM", "RELEGATED", "AVG PTS", "STATUS")
		fmt.Fprintln(w, rule)
		for _, r := range rows {
			fmt.Fprintf(w, "%-15s | %8.2f%% | %8.1f | %s\n",
				r.Team, r.BaselineProb, r.AvgPoints, r.Status)
		}
	}
	fmt.Fprintln(w, rule)

	final := withForm
	if final == nil {
		final = base
	}
	fmt.Fprintf(w, "Survival threshold: %.1f pts (stddev %.1f)\n",
		final.AvgSurvivalPoints, final.SurvivalPointsStdDev)
	fmt.Fprintf(w, "Based on %d trials in %v\n", final.Completed, final.Elapsed.Round(time.Millisecond))
	if final.Partial {
		fmt.Fprintf(w, "WARNING: partial result, %d of %d requested trials completed\n",
			final.Completed, final.Trials)
	}
	return nil
}
