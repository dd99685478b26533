package confidence

import (
	"math"

	"goqv/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// ZScore is the fixed two-sigma criterion for the one-sided lower bound
	ZScore = 2.0

	// HeavyThreshold is the asymptotic heavy-output probability a classical
	// spoofer can reach; a width must beat it to count toward quantum volume.
	HeavyThreshold = 2.0 / 3.0

	// RequiredConfidence is the minimum confidence for a width to pass
	RequiredConfidence = 0.975
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// NominalLevel is the confidence level implied by the fixed z-score,
// Phi(2) ~ 0.97725.
func NominalLevel() float64 {
	return stdNormal.CDF(ZScore)
}

// Result carries the one-sided bound and verdict for one width
type Result struct {
	MeanFraction float64 `json:"mean_fraction"`
	Sigma        float64 `json:"sigma"`
	LowerBound   float64 `json:"lower_bound"` // mean - z*sigma
	Confidence   float64 `json:"confidence"`  // Phi((mean - 2/3) / sigma)
	Pass         bool    `json:"pass"`
}

// Estimator computes one-sided confidence bounds on the true heavy-output
// probability from accumulated running statistics.
type Estimator struct{}

// NewEstimator creates a confidence estimator
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate applies the normal approximation with finite-sample correction:
//
//	sigma = sqrt(mean*(1-mean)/trials) * sqrt(total/(total-1))
//
// The reported confidence is the normal CDF of the standardized excess over
// the 2/3 threshold; a width passes when the mean beats 2/3 and that
// confidence reaches RequiredConfidence, which is the same test as the
// lower bound mean - z*sigma clearing 2/3 at the two-sigma criterion.
func (e *Estimator) Estimate(meanFraction float64, totalShots, numTrials int) (Result, error) {
	if totalShots <= 1 {
		return Result{}, core.NewInsufficientDataError(totalShots)
	}
	if numTrials < 1 {
		return Result{}, core.NewInsufficientDataError(totalShots)
	}

	sigma := math.Sqrt(meanFraction * (1 - meanFraction) / float64(numTrials))
	sigma *= math.Sqrt(float64(totalShots) / float64(totalShots-1))

	conf := 0.0
	switch {
	case sigma > 0:
		conf = stdNormal.CDF((meanFraction - HeavyThreshold) / sigma)
	case meanFraction > HeavyThreshold:
		// Zero variance above threshold: every shot was heavy
		conf = 1.0
	}

	return Result{
		MeanFraction: meanFraction,
		Sigma:        sigma,
		LowerBound:   meanFraction - ZScore*sigma,
		Confidence:   conf,
		Pass:         meanFraction > HeavyThreshold && conf >= RequiredConfidence,
	}, nil
}
