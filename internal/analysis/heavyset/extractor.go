package heavyset

import (
	"math"

	"goqv/domain/core"
	"goqv/domain/qv"

	"github.com/montanaflynn/stats"
)

// SumTolerance is how far the raw probability mass may drift from 1 before
// the distribution is rejected instead of normalized.
const SumTolerance = 1e-6

// Extractor derives heavy-output sets from ideal trial distributions.
// An output is heavy when its ideal probability strictly exceeds the median
// probability over all basis states; outputs exactly at the median are
// excluded.
type Extractor struct{}

// NewExtractor creates a heavy-set extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the heavy-output set of one trial's ideal distribution.
// Probabilities are normalized to sum to 1 before the median is taken, so
// floating-point drift from upstream simulation does not shift the
// threshold. Rejects negative probabilities and distributions whose mass is
// outside 1 +/- SumTolerance.
func (e *Extractor) Extract(dist qv.Distribution) (qv.HeavySet, error) {
	normalized, err := e.normalize(dist)
	if err != nil {
		return nil, err
	}

	probs := make([]float64, 0, len(normalized))
	for _, p := range normalized {
		probs = append(probs, p)
	}

	// Exact median statistic: middle value for odd counts, mean of the two
	// middle values for even counts.
	median, err := stats.Median(probs)
	if err != nil {
		return nil, core.NewInvalidDistributionError(err.Error())
	}

	heavy := make(qv.HeavySet)
	for bitstring, p := range normalized {
		if p > median {
			heavy[bitstring] = struct{}{}
		}
	}
	return heavy, nil
}

// IdealHeavyProbability returns the total normalized ideal probability
// carried by the heavy set. For quantum volume model circuits this
// approaches (1 + ln 2)/2 ~ 0.85 at large width.
func (e *Extractor) IdealHeavyProbability(dist qv.Distribution, heavy qv.HeavySet) (float64, error) {
	normalized, err := e.normalize(dist)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for bitstring := range heavy {
		total += normalized[bitstring]
	}
	return total, nil
}

// normalize validates the raw distribution and rescales it to unit mass
func (e *Extractor) normalize(dist qv.Distribution) (qv.Distribution, error) {
	if len(dist) == 0 {
		return nil, core.NewInvalidDistributionError("empty distribution")
	}

	sum := 0.0
	for bitstring, p := range dist {
		if p < 0 {
			return nil, core.NewInvalidDistributionError("negative probability for " + bitstring)
		}
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, core.NewInvalidDistributionError("non-finite probability for " + bitstring)
		}
		sum += p
	}

	if math.Abs(sum-1) > SumTolerance {
		return nil, core.NewInvalidDistributionError("probabilities do not sum to 1")
	}

	normalized := make(qv.Distribution, len(dist))
	for bitstring, p := range dist {
		normalized[bitstring] = p / sum
	}
	return normalized, nil
}
