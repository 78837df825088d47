package sim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lmoroni/dropzone/internal/league"
	"github.com/lmoroni/dropzone/internal/ratings"
)

// DefaultParallelMinTrials is the batch size below which trials run
// sequentially; dispatch overhead dominates for tiny batches.
const DefaultParallelMinTrials = 100

// Request describes one Monte Carlo batch. Teams, Form and Fixtures are
// treated as read-only and shared across all trials.
type Request struct {
	Teams         map[string]league.TeamStats
	Form          map[string][]int // nil = baseline run, no form weighting
	Fixtures      []league.Fixture
	MatchesPlayed int

	Trials   int
	BaseSeed int64

	// Workers is the parallelism degree; 0 means all CPUs.
	Workers int
	// ParallelMinTrials overrides DefaultParallelMinTrials when positive.
	ParallelMinTrials int
	// AllowPartial opts into receiving an aggregate over fewer than Trials
	// trials when the context is cancelled mid-batch. Without it,
	// cancellation fails the whole request.
	AllowPartial bool

	Params Params
}

// RequestFromSnapshot builds the data portion of a request from a league
// snapshot. The caller still sets trial count, seed, parallelism and params.
func RequestFromSnapshot(snap *league.Snapshot, withForm bool) Request {
	req := Request{
		Teams:         snap.Teams,
		Fixtures:      snap.Fixtures,
		MatchesPlayed: snap.Matchday,
	}
	if withForm {
		req.Form = snap.Form
	}
	return req
}

// validate rejects any input that would silently corrupt probabilities.
// Nothing here is defaulted: a bad value fails the whole request.
func (r *Request) validate() error {
	if r.Trials < 1 {
		return fmt.Errorf("trial count must be at least 1, got %d", r.Trials)
	}
	if err := r.Params.Validate(); err != nil {
		return err
	}
	if r.MatchesPlayed < 1 {
		return fmt.Errorf("matches played must be at least 1, got %d", r.MatchesPlayed)
	}
	if len(r.Teams) <= r.Params.RelegationSlots {
		return fmt.Errorf("need more than %d teams to fill %d relegation slots, got %d",
			r.Params.RelegationSlots, r.Params.RelegationSlots, len(r.Teams))
	}
	for i, f := range r.Fixtures {
		if _, ok := r.Teams[f.Home]; !ok {
			return fmt.Errorf("fixture %d references unknown home team %s", i, f.Home)
		}
		if _, ok := r.Teams[f.Away]; !ok {
			return fmt.Errorf("fixture %d references unknown away team %s", i, f.Away)
		}
	}
	for name, record := range r.Form {
		if _, ok := r.Teams[name]; !ok {
			return fmt.Errorf("form record references unknown team %s", name)
		}
		for i, pts := range record {
			if pts != 0 && pts != 1 && pts != 3 {
				return fmt.Errorf("team %s: form entry %d must be 0, 1 or 3, got %d", name, i, pts)
			}
		}
	}
	return nil
}

// Aggregate is the summary over all completed trials of one batch.
type Aggregate struct {
	RunID string

	// Trials is the requested batch size; Completed the number of trials
	// actually folded in. They differ only on a cancelled batch with
	// AllowPartial set, in which case Partial is true.
	Trials    int
	Completed int
	Partial   bool

	// RelegationCounts maps each team to the number of trials in which it
	// finished in a relegation slot.
	RelegationCounts map[string]int
	// AvgPoints maps each team to its mean final points total.
	AvgPoints map[string]float64
	// Survival threshold statistics: points of the lowest-placed safe team.
	AvgSurvivalPoints    float64
	SurvivalPointsStdDev float64

	Elapsed time.Duration
}

// RelegationProbability returns a team's relegation probability in percent,
// derived from the completed trial count.
func (a *Aggregate) RelegationProbability(team string) float64 {
	if a.Completed == 0 {
		return 0
	}
	return float64(a.RelegationCounts[team]) / float64(a.Completed) * 100
}

// Run executes the batch: ratings are computed exactly once, each trial gets
// the private seed BaseSeed+index (strictly increasing, never reused), and
// results are folded with integer sums, so the aggregate is independent of
// trial completion order. Small batches run sequentially; larger ones are
// distributed across a worker pool with no shared mutable state.
func Run(ctx context.Context, req Request) (*Aggregate, error) {
	start := time.Now()
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation request: %w", err)
	}

	teamRatings, err := ratings.Calculate(req.Teams, req.Form, req.MatchesPlayed)
	if err != nil {
		return nil, fmt.Errorf("rating calculation: %w", err)
	}

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	minParallel := req.ParallelMinTrials
	if minParallel < 1 {
		minParallel = DefaultParallelMinTrials
	}

	agg := newAggregator(req.Teams)
	var completed int
	if workers == 1 || req.Trials < minParallel {
		completed = runSequential(ctx, req, teamRatings, agg)
	} else {
		completed = runParallel(ctx, req, teamRatings, agg, workers)
	}

	if completed < req.Trials && (!req.AllowPartial || completed == 0) {
		return nil, fmt.Errorf("simulation cancelled after %d of %d trials: %w",
			completed, req.Trials, ctx.Err())
	}

	return agg.result(req.Trials, completed, time.Since(start)), nil
}

func runSequential(ctx context.Context, req Request, teamRatings map[string]league.Rating, agg *aggregator) int {
	for i := 0; i < req.Trials; i++ {
		select {
		case <-ctx.Done():
			return i
		default:
		}
		agg.fold(ReplaySeason(req.Teams, req.Fixtures, teamRatings, req.Params, req.BaseSeed+int64(i)))
	}
	return req.Trials
}

func runParallel(ctx context.Context, req Request, teamRatings map[string]league.Rating, agg *aggregator, workers int) int {
	jobs := make(chan int)
	results := make(chan TrialResult, workers)

	// Dispatcher: stops feeding trial indices once the context is done.
	go func() {
		defer close(jobs)
		for i := 0; i < req.Trials; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- ReplaySeason(req.Teams, req.Fixtures, teamRatings, req.Params, req.BaseSeed+int64(i))
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Single collector; folding is commutative so completion order is
	// irrelevant to the result.
	completed := 0
	for tr := range results {
		agg.fold(tr)
		completed++
	}
	return completed
}

// aggregator accumulates trial results as exact integer sums. Integer
// accumulation makes the fold order-independent, which floating point
// would not guarantee.
type aggregator struct {
	counts        map[string]int
	pointsSum     map[string]int64
	survivalSum   int64
	survivalSqSum int64
}

func newAggregator(teams map[string]league.TeamStats) *aggregator {
	a := &aggregator{
		counts:    make(map[string]int, len(teams)),
		pointsSum: make(map[string]int64, len(teams)),
	}
	for name := range teams {
		a.counts[name] = 0
		a.pointsSum[name] = 0
	}
	return a
}

func (a *aggregator) fold(tr TrialResult) {
	for _, team := range tr.Relegated {
		a.counts[team]++
	}
	for team, pts := range tr.FinalPoints {
		a.pointsSum[team] += int64(pts)
	}
	s := int64(tr.SurvivalPoints)
	a.survivalSum += s
	a.survivalSqSum += s * s
}

func (a *aggregator) result(requested, completed int, elapsed time.Duration) *Aggregate {
	n := float64(completed)
	avgPoints := make(map[string]float64, len(a.pointsSum))
	for team, sum := range a.pointsSum {
		avgPoints[team] = float64(sum) / n
	}

	mean := float64(a.survivalSum) / n
	var stddev float64
	if completed > 1 {
		variance := (float64(a.survivalSqSum) - float64(a.survivalSum)*mean) / (n - 1)
		if variance > 0 {
			stddev = math.Sqrt(variance)
		}
	}

	return &Aggregate{
		RunID:                uuid.NewString(),
		Trials:               requested,
		Completed:            completed,
		Partial:              completed < requested,
		RelegationCounts:     a.counts,
		AvgPoints:            avgPoints,
		AvgSurvivalPoints:    mean,
		SurvivalPointsStdDev: stddev,
		Elapsed:              elapsed,
	}
}
