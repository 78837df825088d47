package sim

import (
	"math"
	"math/rand"

	"github.com/lmoroni/dropzone/internal/league"
)

// ExpectedGoals returns the Poisson means for one fixture given both teams'
// ratings and the per-side noise factors already drawn. Defense ratings
// multiply the opposing side's mean, so a defense below 1.0 suppresses goals.
func ExpectedGoals(home, away league.Rating, p Params, homeNoise, awayNoise float64) (lambdaHome, lambdaAway float64) {
	lambdaHome = home.Attack * away.Defense * p.AvgGoalsHome * homeNoise
	lambdaAway = away.Attack * home.Defense * p.AvgGoalsAway * awayNoise
	return lambdaHome, lambdaAway
}

// PlayMatch simulates one fixture and returns the final score. All
// randomness comes from rng, which must be private to the calling trial:
// a generator shared across trials would correlate their outcomes.
func PlayMatch(rng *rand.Rand, home, away league.Rating, p Params) (homeGoals, awayGoals int) {
	homeNoise := drawNoise(rng, p.ChaosFactor)
	awayNoise := drawNoise(rng, p.ChaosFactor)
	lambdaHome, lambdaAway := ExpectedGoals(home, away, p, homeNoise, awayNoise)
	return poissonSample(rng, lambdaHome), poissonSample(rng, lambdaAway)
}

// drawNoise returns a uniform multiplicative noise factor in [1-c, 1+c].
func drawNoise(rng *rand.Rand, c float64) float64 {
	return 1 - c + 2*c*rng.Float64()
}

// poissonSample generates a Poisson-distributed goal count with mean lambda.
// Inverse transform sampling for small lambda, normal approximation above
// (football lambdas almost never get there, but a huge attack rating times
// maximum noise can).
func poissonSample(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda < 12 {
		limit := math.Exp(-lambda)
		k := 0
		p := 1.0
		for p > limit {
			k++
			p *= rng.Float64()
		}
		return k - 1
	}
	return int(math.Max(0, rng.NormFloat64()*math.Sqrt(lambda)+lambda+0.5))
}
