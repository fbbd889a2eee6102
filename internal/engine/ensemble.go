package engine

import (
	"github.com/crossval/quorum/internal/domain"
)

const verdictThreshold = 0.5

// EnsembleOutcome is the aggregated verdict for one request.
type EnsembleOutcome struct {
	Verdict     bool
	Confidence  float64
	Reliability float64
}

// Aggregator computes the final weighted verdict from successful responses.
type Aggregator struct {
	registry *Registry
}

func NewAggregator(registry *Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// Aggregate computes the ensemble confidence as a weight-and-confidence
// weighted vote over successful responses only. The reliability score is the
// unweighted mean of the success fraction, the mean confidence of successful
// responses, and the mean static reliability of the providers that produced a
// response, fallbacks included. An empty response set yields verdict=false,
// confidence=0, reliability=0.
func (a *Aggregator) Aggregate(responses []domain.ProviderResponse) EnsembleOutcome {
	var weightedScore, totalWeight float64
	var confidenceSum float64
	successes := 0

	for _, r := range responses {
		if r.Failed() {
			continue
		}
		successes++
		confidenceSum += r.Confidence

		w := a.registry.Weight(r.ProviderID) * r.Confidence
		totalWeight += w
		if r.Verdict {
			weightedScore += w
		}
	}

	var confidence float64
	if totalWeight > 0 {
		confidence = weightedScore / totalWeight
	}

	return EnsembleOutcome{
		Verdict:     confidence >= verdictThreshold,
		Confidence:  confidence,
		Reliability: a.reliability(successes, confidenceSum, responses),
	}
}

func (a *Aggregator) reliability(successes int, confidenceSum float64, responses []domain.ProviderResponse) float64 {
	if successes == 0 || len(responses) == 0 {
		return 0
	}

	successFraction := float64(successes) / float64(len(responses))
	meanConfidence := confidenceSum / float64(successes)

	// Distinct responders, so fallback providers count toward the static mean.
	seen := make(map[string]struct{}, len(responses))
	staticSum := 0.0
	used := 0
	for _, r := range responses {
		if _, dup := seen[r.ProviderID]; dup {
			continue
		}
		seen[r.ProviderID] = struct{}{}
		if d, ok := a.registry.Get(r.ProviderID); ok {
			staticSum += d.Reliability
			used++
		}
	}
	if used == 0 {
		return 0
	}
	meanStatic := staticSum / float64(used)

	return (successFraction + meanConfidence + meanStatic) / 3.0
}
