// Package sim implements the Monte Carlo season simulation engine: single
// match outcome generation, full-season replay, and parallel aggregation of
// many independent trials.
package sim

import (
	"fmt"
)

// Params holds the league-wide tunables for match simulation and standings
// resolution. None of these are embedded literals in the engine; callers
// supply them (normally from configuration) so other leagues and scoring
// rules work unchanged.
type Params struct {
	// ChaosFactor bounds the uniform multiplicative noise applied to each
	// side's expected goals per match. Must be in [0, 0.5].
	ChaosFactor float64

	// League-wide average goals scored by the home and away side.
	AvgGoalsHome float64
	AvgGoalsAway float64

	// Points awarded per match result.
	PointsWin  int
	PointsDraw int
	PointsLoss int

	// RelegationSlots is the number of bottom-table teams relegated.
	RelegationSlots int
}

// DefaultParams returns the standard top-flight parameterization: Serie A
// goal baselines, 3/1/0 points, three relegation slots, 25% chaos.
func DefaultParams() Params {
	return Params{
		ChaosFactor:     0.25,
		AvgGoalsHome:    1.45,
		AvgGoalsAway:    1.15,
		PointsWin:       3,
		PointsDraw:      1,
		PointsLoss:      0,
		RelegationSlots: 3,
	}
}

// Validate checks parameter constraints.
func (p Params) Validate() error {
	if p.ChaosFactor < 0 || p.ChaosFactor > 0.5 {
		return fmt.Errorf("chaos factor must be in [0, 0.5], got %g", p.ChaosFactor)
	}
	if p.AvgGoalsHome <= 0 {
		return fmt.Errorf("average home goals must be positive, got %g", p.AvgGoalsHome)
	}
	if p.AvgGoalsAway <= 0 {
		return fmt.Errorf("average away goals must be positive, got %g", p.AvgGoalsAway)
	}
	if p.PointsLoss < 0 {
		return fmt.Errorf("points per loss must not be negative, got %d", p.PointsLoss)
	}
	if p.PointsDraw < p.PointsLoss {
		return fmt.Errorf("points per draw (%d) must not be below points per loss (%d)", p.PointsDraw, p.PointsLoss)
	}
	if p.PointsWin <= p.PointsDraw {
		return fmt.Errorf("points per win (%d) must exceed points per draw (%d)", p.PointsWin, p.PointsDraw)
	}
	if p.RelegationSlots < 1 {
		return fmt.Errorf("relegation slots must be at least 1, got %d", p.RelegationSlots)
	}
	return nil
}
